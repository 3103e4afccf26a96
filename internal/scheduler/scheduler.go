// Package scheduler runs the background poll loop: a single cron entry fires
// poll cycles at the configured interval while the service is Running.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"multitool/internal/config"
	"multitool/internal/events"
	"multitool/internal/metrics"
)

// ErrDisabled is returned by Start when the configuration has enabled=false.
var ErrDisabled = errors.New("background service is disabled")

// State of the scheduler.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "stopped"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Stopped, Starting, Running, Stopping} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown scheduler state %q", b)
}

// Trigger is what caused a poll cycle.
type Trigger string

const (
	TriggerStartup Trigger = "startup"
	TriggerTimer   Trigger = "timer"
	TriggerManual  Trigger = "manual"
)

// CycleRunner executes one poll cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, cfg config.BackgroundServiceConfig, trigger Trigger) *Report
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIntervalUnit sets the duration of one configured interval unit.
// Defaults to a minute; tests shrink it.
func WithIntervalUnit(d time.Duration) Option {
	return func(s *Scheduler) { s.unit = d }
}

// WithMetrics records the running gauge and cycle timings on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithPublisher emits service_state events on every transition.
func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) { s.events = p }
}

// every fires at first (once), then every d after the previous run.
// cron.Every rounds to whole seconds, which breaks sub-second test intervals.
type every struct {
	d     time.Duration
	first time.Time
}

func (e *every) Next(t time.Time) time.Time {
	if !e.first.IsZero() {
		f := e.first
		e.first = time.Time{}
		if f.Before(t) {
			return t
		}
		return f
	}
	return t.Add(e.d)
}

type cycle struct {
	trigger Trigger
	done    chan struct{}
	report  *Report
}

// Scheduler is the background service state machine.
//
//	Stopped -> Starting -> Running -> Stopping -> Stopped
//
// At most one poll cycle runs at a time: timer ticks during a cycle are
// skipped and ForcePoll joins the cycle in flight.
type Scheduler struct {
	runner  CycleRunner
	unit    time.Duration
	metrics *metrics.Metrics
	events  Publisher

	// lifecycle serializes Start, Stop and Reconfigure.
	lifecycle sync.Mutex

	mu       sync.Mutex
	state    State
	cfg      config.BackgroundServiceConfig
	cron     *cron.Cron
	entry    cron.EntryID
	armedAt  time.Time
	inflight *cycle
	last     *Report
}

// New creates a stopped Scheduler holding cfg.
func New(runner CycleRunner, cfg config.BackgroundServiceConfig, opts ...Option) *Scheduler {
	s := &Scheduler{runner: runner, unit: time.Minute, cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scheduler) interval(cfg config.BackgroundServiceConfig) time.Duration {
	return time.Duration(cfg.ClampedIntervalMinutes()) * s.unit
}

// Start moves a Stopped scheduler to Running, arms the timer and fires one
// poll immediately in the background. A disabled cfg leaves the scheduler
// Stopped and returns ErrDisabled. Start while Running is a no-op.
func (s *Scheduler) Start(cfg config.BackgroundServiceConfig) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.startLocked(cfg)
}

func (s *Scheduler) startLocked(cfg config.BackgroundServiceConfig) error {
	s.mu.Lock()
	s.cfg = cfg
	if s.state == Running {
		s.mu.Unlock()
		return nil
	}
	if !cfg.Enabled {
		s.mu.Unlock()
		return ErrDisabled
	}
	s.state = Starting
	s.mu.Unlock()

	if cfg.BelowPolicy() {
		log.Printf("[scheduler] interval %d min is below the recommended %d min", cfg.CheckIntervalMinutes, config.RecommendedMinIntervalMinutes)
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log.Default()))))
	now := time.Now()
	id := c.Schedule(&every{d: s.interval(cfg), first: now.Add(s.interval(cfg))}, cron.FuncJob(s.tick))
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.entry = id
	s.armedAt = now
	s.state = Running
	cy, started := s.beginLocked(TriggerStartup)
	s.mu.Unlock()

	log.Printf("[scheduler] started, interval %s", s.interval(cfg))
	s.metrics.SetRunning(true)
	s.publishState(Running)
	if started {
		go s.run(cy)
	}
	return nil
}

// Stop cancels the timer, waits for the cycle in flight and moves to Stopped.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	s.state = Stopping
	c := s.cron
	s.cron = nil
	inflight := s.inflight
	s.mu.Unlock()

	// Waits for a timer-driven cycle that is already running.
	<-c.Stop().Done()
	if inflight != nil {
		<-inflight.done
	}

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()

	log.Printf("[scheduler] stopped")
	s.metrics.SetRunning(false)
	s.publishState(Stopped)
}

// Reconfigure replaces the cached config and applies it: disabling stops a
// running scheduler, enabling starts a stopped one, and an interval change
// re-arms the timer without restarting. The phase is kept: the next run is
// one new interval after the previous run.
func (s *Scheduler) Reconfigure(cfg config.BackgroundServiceConfig) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	state := s.state
	old := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	switch {
	case state == Running && !cfg.Enabled:
		s.stopLocked()
	case state == Stopped && cfg.Enabled:
		return s.startLocked(cfg)
	case state == Running && s.interval(cfg) != s.interval(old):
		s.rearm(cfg)
	}
	return nil
}

func (s *Scheduler) rearm(cfg config.BackgroundServiceConfig) {
	s.mu.Lock()
	c, id, base := s.cron, s.entry, s.armedAt
	s.mu.Unlock()

	if prev := c.Entry(id).Prev; !prev.IsZero() {
		base = prev
	}
	d := s.interval(cfg)
	c.Remove(id)
	newID := c.Schedule(&every{d: d, first: base.Add(d)}, cron.FuncJob(s.tick))

	s.mu.Lock()
	s.entry = newID
	s.armedAt = base
	s.mu.Unlock()
	log.Printf("[scheduler] interval changed to %s", d)
}

// Refresh replaces the cached config without touching the timer.
func (s *Scheduler) Refresh(cfg config.BackgroundServiceConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Config returns the cached config.
func (s *Scheduler) Config() config.BackgroundServiceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ForcePoll runs one cycle now, in any state, without touching the timer.
// When a cycle is already running the call waits for it and returns its
// report instead of starting another.
func (s *Scheduler) ForcePoll(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	cy, started := s.beginLocked(TriggerManual)
	s.mu.Unlock()
	if started {
		go s.run(cy)
	}

	select {
	case <-cy.done:
		return cy.report.Clone(), cy.report.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// tick is the cron job.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	if s.inflight != nil {
		trigger := s.inflight.trigger
		s.mu.Unlock()
		log.Printf("[scheduler] tick skipped, %s cycle still running", trigger)
		return
	}
	cy, _ := s.beginLocked(TriggerTimer)
	s.mu.Unlock()
	s.run(cy)
}

// beginLocked returns the cycle in flight, or registers a new one and
// reports started=true. Must be called with s.mu held.
func (s *Scheduler) beginLocked(trigger Trigger) (*cycle, bool) {
	if s.inflight != nil {
		return s.inflight, false
	}
	cy := &cycle{trigger: trigger, done: make(chan struct{})}
	s.inflight = cy
	return cy, true
}

func (s *Scheduler) run(cy *cycle) {
	cfg := s.Config()
	start := time.Now()
	report := s.runner.RunCycle(context.Background(), cfg, cy.trigger)
	if report == nil {
		report = &Report{Trigger: cy.trigger, StartedAt: start, FinishedAt: time.Now()}
	}
	s.metrics.CycleCompleted(string(cy.trigger), time.Since(start))

	s.mu.Lock()
	cy.report = report
	s.last = report
	s.inflight = nil
	s.mu.Unlock()
	close(cy.done)
}

func (s *Scheduler) publishState(st State) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{Type: events.ServiceState, Payload: st.String()})
}

// Status is a point-in-time copy of the scheduler.
type Status struct {
	State      State                          `json:"state"`
	Running    bool                           `json:"running"`
	Config     config.BackgroundServiceConfig `json:"config"`
	Polling    bool                           `json:"polling"`
	NextRun    *time.Time                     `json:"next_run,omitempty"`
	LastReport *Report                        `json:"last_report,omitempty"`
}

// Snapshot returns the current status. The report is a copy.
func (s *Scheduler) Snapshot() Status {
	s.mu.Lock()
	st := Status{
		State:      s.state,
		Running:    s.state == Running,
		Config:     s.cfg,
		Polling:    s.inflight != nil,
		LastReport: s.last.Clone(),
	}
	c, id := s.cron, s.entry
	s.mu.Unlock()

	if c != nil {
		if next := c.Entry(id).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}
