// Package service is the process-wide handle behind every command the UI,
// the HTTP boundary, MCP clients and the CLI invoke. It owns the scheduler
// and the stores, so all callers observe the same state.
package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"multitool/internal/autostart"
	"multitool/internal/buildinfo"
	"multitool/internal/cache"
	"multitool/internal/config"
	"multitool/internal/events"
	"multitool/internal/gamepath"
	"multitool/internal/gateway"
	"multitool/internal/metrics"
	"multitool/internal/notify"
	"multitool/internal/presets"
	"multitool/internal/scheduler"
	"multitool/internal/translation"
	"multitool/internal/update"
)

// Options wires a Service. Zero fields get production defaults.
type Options struct {
	Store       *config.Store
	Preferences *config.PreferencesStore
	Settings    *config.Settings
	Autostart   autostart.Manager
	Elevator    autostart.Elevator
	Build       *buildinfo.Info
	Hub         *events.Hub
	Metrics     *metrics.Metrics
	Notifier    notify.Notifier
	HTTPClient  *http.Client
	// Discover replaces the launcher-log scanner (tests).
	Discover scheduler.Discoverer
	// IntervalUnit is the length of one configured interval unit (tests).
	IntervalUnit time.Duration
	// OnRestart runs after an elevated copy was launched; serve exits from it.
	OnRestart func()
}

// Service implements the command surface.
type Service struct {
	store     *config.Store
	prefs     *config.PreferencesStore
	settings  config.Settings
	autostart autostart.Manager
	elevator  autostart.Elevator
	onRestart func()
	build     buildinfo.Info

	engine   *translation.Engine
	discover scheduler.Discoverer
	gateway  *gateway.Client
	presets  *presets.Manager
	cache    *cache.Cache
	updater  *update.Checker
	sched    *scheduler.Scheduler
	hub      *events.Hub
	metrics  *metrics.Metrics

	// cfgMu serializes set/save so persisted and applied config never diverge.
	cfgMu sync.Mutex
}

// New builds a Service from opts. The scheduler starts Stopped; call Boot.
func New(opts Options) *Service {
	s := &Service{
		store:     opts.Store,
		prefs:     opts.Preferences,
		autostart: opts.Autostart,
		elevator:  opts.Elevator,
		onRestart: opts.OnRestart,
		hub:       opts.Hub,
		metrics:   opts.Metrics,
		discover:  opts.Discover,
	}
	if s.store == nil {
		s.store = config.DefaultStore()
	}
	if s.prefs == nil {
		s.prefs = config.DefaultPreferencesStore()
	}
	if opts.Settings != nil {
		s.settings = *opts.Settings
	} else {
		s.settings = config.DefaultSettings()
	}
	if s.autostart == nil {
		s.autostart = autostart.New()
	}
	if s.elevator == nil {
		s.elevator = autostart.NewElevator()
	}
	if opts.Build != nil {
		s.build = *opts.Build
	} else {
		s.build = buildinfo.Current()
	}
	if s.settings.GitHubRepo != "" {
		s.build.GitHubRepo = s.settings.GitHubRepo
	}
	if s.hub == nil {
		s.hub = events.NewHub()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 2 * time.Minute}
	}
	s.engine = translation.NewEngine(
		translation.WithHTTPClient(hc),
		translation.WithUserAgent(s.settings.Endpoints.UserAgent),
		translation.WithProtectedPaths(s.settings.ProtectedPaths...),
	)
	if s.discover == nil {
		s.discover = &gamepath.Scanner{
			LogPath:     s.settings.LauncherLogPath,
			ExtraPaths:  s.settings.ExtraInstallPaths,
			CheckExists: true,
		}
	}
	s.gateway = gateway.New(s.settings.Endpoints, nil)
	s.presets = presets.NewManager(s.discover, nil)
	s.cache = cache.New(s.settings.CacheDir)
	s.updater = update.NewChecker(s.build, s.settings)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.FromSettings(s.settings.Notifications)
	}
	poller := &scheduler.Poller{
		Discover:     s.discover,
		Selections:   s.prefs,
		Engine:       s.engine,
		App:          s.updater,
		Events:       s.hub,
		Notifier:     notifier,
		Metrics:      s.metrics,
		Build:        s.build,
		ProbeTimeout: s.settings.ProbeTimeout,
		MaxParallel:  s.settings.MaxParallelProbes,
	}

	schedOpts := []scheduler.Option{scheduler.WithMetrics(s.metrics), scheduler.WithPublisher(s.hub)}
	if opts.IntervalUnit > 0 {
		schedOpts = append(schedOpts, scheduler.WithIntervalUnit(opts.IntervalUnit))
	}
	s.sched = scheduler.New(poller, s.store.LoadOrDefault(), schedOpts...)
	return s
}

// LoadSettings loads .env files, then settings.yaml. A corrupt file is
// logged and replaced by the defaults.
func LoadSettings() (config.Settings, error) {
	config.LoadDotEnv(config.DotEnvPaths()...)
	settings, err := config.LoadSettings(config.SettingsPath())
	if err != nil {
		if !errors.Is(err, config.ErrConfigCorrupt) {
			return settings, err
		}
		log.Printf("[service] %v, using defaults", err)
	}
	return settings, nil
}

// Open builds a production Service from LoadSettings.
func Open() (*Service, error) {
	settings, err := LoadSettings()
	if err != nil {
		return nil, err
	}
	return New(Options{Settings: &settings}), nil
}

// Boot applies a staged application update and starts the scheduler when
// the stored config is enabled. It returns the version applied, if any.
func (s *Service) Boot() string {
	applied, err := s.updater.ApplyStaged()
	if err != nil {
		log.Printf("[service] apply staged update: %v", err)
	}
	cfg := s.sched.Config()
	if err := s.sched.Start(cfg); err != nil && !errors.Is(err, scheduler.ErrDisabled) {
		log.Printf("[service] start background service: %v", err)
	}
	return applied
}

// Close stops the scheduler, waiting for a running cycle.
func (s *Service) Close() {
	s.sched.Stop()
}

// Hub is the event stream shared with the HTTP boundary.
func (s *Service) Hub() *events.Hub { return s.hub }

// Metrics are the collectors served on /metrics.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// Settings returns the loaded application settings.
func (s *Service) Settings() config.Settings { return s.settings }

// Updater exposes the release checker to the update command.
func (s *Service) Updater() *update.Checker { return s.updater }

func (s *Service) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
