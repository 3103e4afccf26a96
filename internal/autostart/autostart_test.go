package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func managers(t *testing.T, target Target) map[string]struct {
	m    Manager
	path string
} {
	dir := t.TempDir()
	desktop := filepath.Join(dir, "autostart", "multitool.desktop")
	plist := filepath.Join(dir, "LaunchAgents", "fr.onivoid.multitool.plist")
	return map[string]struct {
		m    Manager
		path string
	}{
		"desktop": {NewDesktopEntry(desktop, target), desktop},
		"plist":   {NewLaunchAgent(plist, target), plist},
	}
}

func TestEnableTwice(t *testing.T) {
	target := Target{Executable: "/opt/multitool/multitool", Args: []string{MinimizedArg}}
	for name, tc := range managers(t, target) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 2; i++ {
				if err := tc.m.Enable(); err != nil {
					t.Fatalf("Enable() #%d: %v", i+1, err)
				}
				ok, err := tc.m.IsEnabled()
				if err != nil || !ok {
					t.Fatalf("IsEnabled() #%d = %v, %v; want true", i+1, ok, err)
				}
			}
			data, err := os.ReadFile(tc.path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), target.Executable) || !strings.Contains(string(data), MinimizedArg) {
				t.Errorf("entry missing target:\n%s", data)
			}
		})
	}
}

func TestDisableIdempotent(t *testing.T) {
	target := Target{Executable: "/opt/multitool/multitool"}
	for name, tc := range managers(t, target) {
		t.Run(name, func(t *testing.T) {
			if err := tc.m.Disable(); err != nil {
				t.Fatalf("Disable() on clean state: %v", err)
			}
			if err := tc.m.Enable(); err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 2; i++ {
				if err := tc.m.Disable(); err != nil {
					t.Fatalf("Disable() #%d: %v", i+1, err)
				}
			}
			ok, err := tc.m.IsEnabled()
			if err != nil || ok {
				t.Errorf("IsEnabled() = %v, %v; want false", ok, err)
			}
		})
	}
}

func TestEnableRewritesStaleTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multitool.desktop")
	old := NewDesktopEntry(path, Target{Executable: "/old/multitool"})
	if err := old.Enable(); err != nil {
		t.Fatal(err)
	}
	current := NewDesktopEntry(path, Target{Executable: "/new/multitool", Args: []string{MinimizedArg}})
	if err := current.Enable(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "/old/multitool") || !strings.Contains(string(data), `Exec="/new/multitool" --minimized`) {
		t.Errorf("entry not rewritten:\n%s", data)
	}
}

func TestEnableUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "autostart")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	m := NewDesktopEntry(filepath.Join(blocker, "multitool.desktop"), Target{Executable: "/bin/m"})
	if err := m.Enable(); !errors.Is(err, ErrPlatformQuery) {
		t.Errorf("Enable() error = %v, want ErrPlatformQuery", err)
	}
}

func TestUnsupported(t *testing.T) {
	var m Manager = unsupported{err: ErrUnsupported}
	if _, err := m.IsEnabled(); !errors.Is(err, ErrPlatformQuery) {
		t.Errorf("IsEnabled() error = %v", err)
	}
	if err := m.Enable(); !errors.Is(err, ErrPlatformQuery) {
		t.Errorf("Enable() error = %v", err)
	}
}

func TestCommandLine(t *testing.T) {
	target := Target{Executable: `C:\Apps\Multitool\multitool.exe`, Args: []string{MinimizedArg}}
	want := `"C:\Apps\Multitool\multitool.exe" --minimized`
	if got := target.CommandLine(); got != want {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}
}
