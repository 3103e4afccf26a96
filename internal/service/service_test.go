package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"multitool/internal/autostart"
	"multitool/internal/buildinfo"
	"multitool/internal/cache"
	"multitool/internal/config"
	"multitool/internal/gamepath"
	"multitool/internal/notify"
	"multitool/internal/scheduler"
)

type fakeAutostart struct {
	mu      sync.Mutex
	enabled bool
	err     error
	calls   []string
}

func (f *fakeAutostart) IsEnabled() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled, f.err
}

func (f *fakeAutostart) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "enable")
	if f.err != nil {
		return f.err
	}
	f.enabled = true
	return nil
}

func (f *fakeAutostart) Disable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "disable")
	if f.err != nil {
		return f.err
	}
	f.enabled = false
	return nil
}

type fakeElevator struct {
	elevated bool
	err      error
	launched int
}

func (f *fakeElevator) IsElevated() bool { return f.elevated }

func (f *fakeElevator) Relaunch() error {
	if f.err != nil {
		return f.err
	}
	f.launched++
	return nil
}

type staticDiscover gamepath.VersionPaths

func (s staticDiscover) Scan() (gamepath.VersionPaths, error) { return gamepath.VersionPaths(s), nil }

type quietNotifier struct{}

func (quietNotifier) Send(notify.Notification) error { return nil }
func (quietNotifier) Name() string                   { return "quiet" }

type fixture struct {
	svc      *Service
	auto     *fakeAutostart
	elevator *fakeElevator
	store    *config.Store
	live     string
	cache    string
	// restarted receives once per restart hook call.
	restarted chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	live := filepath.Join(dir, "StarCitizen", "LIVE")
	if err := os.MkdirAll(live, 0755); err != nil {
		t.Fatal(err)
	}
	settings := config.DefaultSettings()
	settings.CacheDir = filepath.Join(dir, "cache")
	settings.ProtectedPaths = nil

	f := &fixture{
		auto:      &fakeAutostart{},
		elevator:  &fakeElevator{},
		restarted: make(chan struct{}, 1),
		store:     config.NewStore(filepath.Join(dir, "background_service.json")),
		live:      live,
		cache:     settings.CacheDir,
	}
	f.svc = New(Options{
		Store:        f.store,
		Preferences:  config.NewPreferencesStore(filepath.Join(dir, "translations_selected.json")),
		Settings:     &settings,
		Autostart:    f.auto,
		Elevator:     f.elevator,
		OnRestart:    func() { f.restarted <- struct{}{} },
		Build:        &buildinfo.Info{Distribution: buildinfo.MicrosoftStore, Version: "1.0.0"},
		Notifier:     quietNotifier{},
		Discover:     staticDiscover{Versions: map[string]gamepath.VersionInfo{"LIVE": {Path: live}}},
		IntervalUnit: time.Hour,
	})
	t.Cleanup(f.svc.Close)
	return f
}

func enabledConfig() config.BackgroundServiceConfig {
	cfg := config.Defaults()
	cfg.Enabled = true
	return cfg
}

func TestSetConfigAppliesLive(t *testing.T) {
	f := newFixture(t)

	cfg := enabledConfig()
	cfg.StartWithSystem = true
	if err := f.svc.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if got := f.svc.Status().State; got != scheduler.Running {
		t.Errorf("state = %v, want Running", got)
	}
	if !f.auto.enabled {
		t.Error("auto-start not enabled")
	}
	stored, err := f.store.Load()
	if err != nil || stored != cfg {
		t.Errorf("stored = %+v, %v", stored, err)
	}

	cfg.Enabled = false
	cfg.StartWithSystem = false
	if err := f.svc.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if got := f.svc.Status().State; got != scheduler.Stopped {
		t.Errorf("state = %v, want Stopped", got)
	}
	if f.auto.enabled {
		t.Error("auto-start still enabled")
	}
}

func TestSetConfigSkipsMatchingAutostart(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.SetConfig(config.Defaults()); err != nil {
		t.Fatal(err)
	}
	if len(f.auto.calls) != 0 {
		t.Errorf("calls = %v, want none", f.auto.calls)
	}
}

func TestSetConfigRewritesExistingAutostart(t *testing.T) {
	f := newFixture(t)
	f.auto.enabled = true

	cfg := enabledConfig()
	cfg.StartWithSystem = true
	if err := f.svc.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if len(f.auto.calls) != 1 || f.auto.calls[0] != "enable" {
		t.Errorf("calls = %v, want [enable]", f.auto.calls)
	}
}

func TestSetConfigAutostartFailureStillApplies(t *testing.T) {
	f := newFixture(t)
	f.auto.err = errors.New("registry locked")

	cfg := enabledConfig()
	cfg.StartWithSystem = true
	if err := f.svc.SetConfig(cfg); err == nil {
		t.Fatal("SetConfig succeeded, want auto-start error")
	}
	if got := f.svc.Status().State; got != scheduler.Running {
		t.Errorf("state = %v, want Running", got)
	}
}

func TestSetConfigPersistFailureAppliesNothing(t *testing.T) {
	f := newFixture(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	f.svc.store = config.NewStore(filepath.Join(blocker, "background_service.json"))

	if err := f.svc.SetConfig(enabledConfig()); !errors.Is(err, config.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if got := f.svc.Status().State; got != scheduler.Stopped {
		t.Errorf("state = %v, want Stopped", got)
	}
	if f.svc.GetConfig().Enabled {
		t.Error("config applied after failed persist")
	}
}

func TestSaveConfigDoesNotStart(t *testing.T) {
	f := newFixture(t)

	cfg := enabledConfig()
	cfg.StartWithSystem = true
	if err := f.svc.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if got := f.svc.Status().State; got != scheduler.Stopped {
		t.Errorf("state = %v, want Stopped", got)
	}
	if len(f.auto.calls) != 0 {
		t.Errorf("auto-start touched: %v", f.auto.calls)
	}
	if !f.svc.GetConfig().Enabled {
		t.Error("cached config not refreshed")
	}

	// Now start and save again: the running scheduler picks the change up.
	if err := f.svc.StartBackground(); err != nil {
		t.Fatal(err)
	}
	cfg.CheckIntervalMinutes = 30
	if err := f.svc.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if got := f.svc.Status().Config.CheckIntervalMinutes; got != 30 {
		t.Errorf("interval = %d, want 30", got)
	}
	f.svc.StopBackground()
	f.svc.StopBackground()
	if got := f.svc.Status().State; got != scheduler.Stopped {
		t.Errorf("state = %v, want Stopped", got)
	}
}

func TestStartDisabled(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.StartBackground(); !errors.Is(err, scheduler.ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestInvokeUnknownAndInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Invoke(ctx, "format_disk", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown: %v", err)
	}
	tests := []struct {
		name string
		args string
	}{
		{"is_game_translated", `{}`},
		{"set_background_service_config", `{"config": null}`},
		{"init_translation_files", `{"path": "x"}`},
		{"get_characters", `[1,2]`},
	}
	for _, tt := range tests {
		if _, err := f.svc.Invoke(ctx, tt.name, json.RawMessage(tt.args)); !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("%s(%s) = %v, want ErrInvalidArgs", tt.name, tt.args, err)
		}
	}
}

func TestRestartAsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.Invoke(ctx, "is_running_as_admin", nil)
	if err != nil || got != false {
		t.Fatalf("is_running_as_admin = %v, %v", got, err)
	}
	f.elevator.elevated = true
	if got, _ := f.svc.Invoke(ctx, "is_running_as_admin", nil); got != true {
		t.Errorf("is_running_as_admin = %v after elevation", got)
	}

	if _, err := f.svc.Invoke(ctx, "restart_as_admin", nil); err != nil {
		t.Fatal(err)
	}
	select {
	case <-f.restarted:
	case <-time.After(2 * time.Second):
		t.Fatal("restart hook not called")
	}
	if f.elevator.launched != 1 {
		t.Errorf("launched = %d, want 1", f.elevator.launched)
	}
}

func TestRestartAsAdminDeclined(t *testing.T) {
	f := newFixture(t)
	f.elevator.err = autostart.ErrElevationUnsupported

	_, err := f.svc.Invoke(context.Background(), "restart_as_admin", nil)
	if !errors.Is(err, autostart.ErrPlatformQuery) {
		t.Fatalf("restart_as_admin = %v, want ErrPlatformQuery", err)
	}
	select {
	case <-f.restarted:
		t.Error("restart hook called after a failed relaunch")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNamesCoverCommandSurface(t *testing.T) {
	if got := len(Names()); got != 34 {
		t.Errorf("len(Names()) = %d, want 34", got)
	}
}

func TestLinkArgShapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"https://x/global.ini"`, "https://x/global.ini"},
		{`{"link": "https://y/global.ini", "settingsEN": false}`, "https://y/global.ini"},
		{`{"link": null}`, ""},
		{`null`, ""},
	}
	for _, tt := range tests {
		var l linkArg
		if err := json.Unmarshal([]byte(tt.in), &l); err != nil {
			t.Errorf("%s: %v", tt.in, err)
			continue
		}
		if string(l) != tt.want {
			t.Errorf("%s = %q, want %q", tt.in, l, tt.want)
		}
	}
}

func TestInvokeTranslationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("key=valeur\n"))
	}))
	defer srv.Close()

	args := func(link string) json.RawMessage {
		b, _ := json.Marshal(map[string]any{
			"path":            f.live,
			"lang":            "fr",
			"translationLink": map[string]string{"link": link},
		})
		return b
	}

	if _, err := f.svc.Invoke(ctx, "init_translation_files", args(srv.URL)); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.Invoke(ctx, "is_game_translated", json.RawMessage(`{"path":"`+filepath.ToSlash(f.live)+`"}`))
	if err != nil || got != true {
		t.Errorf("is_game_translated = %v, %v", got, err)
	}
	got, err = f.svc.Invoke(ctx, "is_translation_up_to_date", args(srv.URL))
	if err != nil || got != true {
		t.Errorf("is_translation_up_to_date = %v, %v", got, err)
	}

	vp, err := f.svc.Versions()
	if err != nil {
		t.Fatal(err)
	}
	if v := vp.Versions["LIVE"]; !v.Translated || v.UpToDate {
		t.Errorf("LIVE = %+v, want translated and not probed", v)
	}

	if _, err := f.svc.Invoke(ctx, "uninstall_translation", json.RawMessage(`{"path":"`+filepath.ToSlash(f.live)+`"}`)); err != nil {
		t.Fatal(err)
	}
	if f.svc.IsGameTranslated(f.live, "") {
		t.Error("still translated after uninstall")
	}
}

func TestSelectionsRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := `{"data":{"LIVE":{"link":"https://x/global.ini","settingsEN":true},"PTU":null}}`
	if _, err := f.svc.Invoke(ctx, "save_translations_selected", json.RawMessage(in)); err != nil {
		t.Fatal(err)
	}
	sel, err := f.svc.LoadTranslationsSelected()
	if err != nil {
		t.Fatal(err)
	}
	if !sel["LIVE"].HasLink() || sel["LIVE"].LinkValue() != "https://x/global.ini" {
		t.Errorf("LIVE = %+v", sel["LIVE"])
	}
	if sel["PTU"].HasLink() {
		t.Errorf("PTU = %+v", sel["PTU"])
	}
}

func TestDeleteFolderConfinedToCache(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(filepath.Join(f.cache, "shaders"), 0755); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	arg := func(p string) json.RawMessage {
		b, _ := json.Marshal(map[string]string{"path": p})
		return b
	}
	if _, err := f.svc.Invoke(ctx, "delete_folder", arg(f.live)); !errors.Is(err, cache.ErrOutsideCache) {
		t.Errorf("outside: %v", err)
	}
	if _, err := f.svc.Invoke(ctx, "delete_folder", arg(filepath.Join(f.cache, "shaders"))); err != nil {
		t.Errorf("inside: %v", err)
	}
}

func TestBuildInfo(t *testing.T) {
	f := newFixture(t)
	got := f.svc.BuildInfo()
	if got.Distribution != buildinfo.MicrosoftStore || got.Security.AllowAutoUpdates {
		t.Errorf("BuildInfo() = %+v", got)
	}
	if got.GitHubRepo == "" {
		t.Error("repository not filled from settings")
	}
}

func TestForcePollWhileStopped(t *testing.T) {
	f := newFixture(t)
	report, err := f.svc.ForcePoll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Trigger != scheduler.TriggerManual {
		t.Errorf("trigger = %v", report.Trigger)
	}
	if report.App != nil {
		t.Error("store build checked for an app update")
	}
}
