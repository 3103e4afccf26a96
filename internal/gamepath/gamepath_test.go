package gamepath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInstallPaths(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			"json escaped",
			`{"t":"2024-05-01T10:00:00Z","info":"Launching C:\\Program Files\\Roberts Space Industries\\StarCitizen\\LIVE\\Bin64"}`,
			[]string{`C:\\Program Files\\Roberts Space Industries\\StarCitizen\\LIVE`},
		},
		{
			"plain backslashes",
			`[Launcher] Installing to D:\Games\RSI\StarCitizen\PTU`,
			[]string{`D:\Games\RSI\StarCitizen\PTU`},
		},
		{
			"forward slashes",
			`launch /home/pilot/Games/rsi/StarCitizen/EPTU now`,
			[]string{`/home/pilot/Games/rsi/StarCitizen/EPTU`},
		},
		{
			"two paths",
			`C:\\RSI\\StarCitizen\\LIVE and C:\\RSI\\StarCitizen\\HOTFIX`,
			[]string{`C:\\RSI\\StarCitizen\\LIVE`, `C:\\RSI\\StarCitizen\\HOTFIX`},
		},
		{"no path", `nothing to see here`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InstallPaths(tt.line)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("InstallPaths() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChannelID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{`C:\Program Files\Roberts Space Industries\StarCitizen\LIVE`, "LIVE"},
		{`C:\RSI\StarCitizen\PTU\`, "PTU"},
		{`/games/StarCitizen/TECH-PREVIEW`, "TECH-PREVIEW"},
		{`C:\RSI\Other\LIVE`, UnknownChannel},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ChannelID(tt.path); got != tt.want {
				t.Errorf("ChannelID(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func makeInstall(t *testing.T, root string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, "Bin64"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{filepath.Join(root, "Bin64", "StarCitizen.exe"), filepath.Join(root, "Data.p4k")} {
		if err := os.WriteFile(f, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	oldLive := filepath.Join(dir, "old", "StarCitizen", "LIVE")
	newLive := filepath.Join(dir, "new", "StarCitizen", "LIVE")
	ptu := filepath.Join(dir, "new", "StarCitizen", "PTU")
	ghost := filepath.Join(dir, "ghost", "StarCitizen", "EPTU")
	extra := filepath.Join(dir, "manual", "StarCitizen", "HOTFIX")
	makeInstall(t, oldLive)
	makeInstall(t, newLive)
	makeInstall(t, ptu)
	makeInstall(t, extra)

	log := strings.Join([]string{
		"install " + oldLive,
		"install " + ptu + "/Bin64",
		"install " + ghost,
		"install " + newLive,
	}, "\n")
	logPath := filepath.Join(dir, "log.log")
	if err := os.WriteFile(logPath, []byte(log), 0644); err != nil {
		t.Fatal(err)
	}

	s := &Scanner{LogPath: logPath, ExtraPaths: []string{extra}, CheckExists: true}
	got, err := s.Scan()
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{"LIVE": newLive, "PTU": ptu, "HOTFIX": extra}
	if len(got.Versions) != len(want) {
		t.Fatalf("Scan() = %+v, want channels %v", got.Versions, want)
	}
	for ch, path := range want {
		if got.Versions[ch].Path != path {
			t.Errorf("%s = %q, want %q", ch, got.Versions[ch].Path, path)
		}
	}
	if chans := got.Channels(); strings.Join(chans, ",") != "HOTFIX,LIVE,PTU" {
		t.Errorf("Channels() = %v", chans)
	}
}

func TestScanMissingLog(t *testing.T) {
	s := &Scanner{LogPath: filepath.Join(t.TempDir(), "absent.log"), CheckExists: true}
	got, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got.Versions) != 0 {
		t.Errorf("Scan() = %+v, want empty", got.Versions)
	}
}

func TestScanWithoutExistenceCheck(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "log.log")
	if err := os.WriteFile(logPath, []byte(`"C:\\RSI\\StarCitizen\\LIVE\\"`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := (&Scanner{LogPath: logPath}).Scan()
	if err != nil {
		t.Fatal(err)
	}
	if got.Versions["LIVE"].Path != `C:\RSI\StarCitizen\LIVE` {
		t.Errorf("LIVE = %+v", got.Versions["LIVE"])
	}
}
