package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"multitool/internal/config"
	"multitool/internal/events"
	"multitool/internal/metrics"
)

// fakeRunner counts cycles per trigger. When gate is set, each cycle blocks
// until a value is sent on it.
type fakeRunner struct {
	mu       sync.Mutex
	triggers []Trigger
	running  int32
	overlap  int32
	gate     chan struct{}
	started  chan Trigger
	err      error
}

func (f *fakeRunner) RunCycle(ctx context.Context, cfg config.BackgroundServiceConfig, trigger Trigger) *Report {
	if atomic.AddInt32(&f.running, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.running, -1)

	f.mu.Lock()
	f.triggers = append(f.triggers, trigger)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- trigger
	}
	if f.gate != nil {
		<-f.gate
	}
	r := &Report{Trigger: trigger, StartedAt: time.Now(), FinishedAt: time.Now()}
	if f.err != nil {
		r.errs = append(r.errs, f.err)
	}
	return r
}

func (f *fakeRunner) count(t Trigger) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, got := range f.triggers {
		if got == t {
			n++
		}
	}
	return n
}

func (f *fakeRunner) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggers)
}

func enabled(interval int) config.BackgroundServiceConfig {
	cfg := config.Defaults()
	cfg.Enabled = true
	cfg.CheckIntervalMinutes = interval
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartDisabled(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, config.Defaults(), WithIntervalUnit(10*time.Millisecond))

	if err := s.Start(config.Defaults()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Start(disabled) = %v, want ErrDisabled", err)
	}
	if s.State() != Stopped {
		t.Errorf("state = %s, want stopped", s.State())
	}
	time.Sleep(50 * time.Millisecond)
	if r.total() != 0 {
		t.Errorf("%d cycles ran while disabled", r.total())
	}
	if s.Snapshot().NextRun != nil {
		t.Error("timer armed while disabled")
	}
}

func TestStartFiresStartupPollAndTimer(t *testing.T) {
	r := &fakeRunner{}
	m := metrics.New()
	s := New(r, config.Defaults(), WithIntervalUnit(20*time.Millisecond), WithMetrics(m))
	defer s.Stop()

	if err := s.Start(enabled(1)); err != nil {
		t.Fatal(err)
	}
	if s.State() != Running {
		t.Fatalf("state = %s", s.State())
	}
	waitFor(t, "startup cycle", func() bool { return r.count(TriggerStartup) == 1 })
	waitFor(t, "timer cycles", func() bool { return r.count(TriggerTimer) >= 2 })
	if atomic.LoadInt32(&r.overlap) != 0 {
		t.Error("cycles overlapped")
	}
}

func TestHugeIntervalDoesNotSpin(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, config.Defaults())
	defer s.Stop()

	cfg := enabled(200_000_000)
	if d := s.interval(cfg); d <= 0 {
		t.Fatalf("interval = %s, want positive", d)
	}
	if err := s.Start(cfg); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "startup cycle", func() bool { return r.count(TriggerStartup) == 1 })
	time.Sleep(100 * time.Millisecond)
	if n := r.count(TriggerTimer); n != 0 {
		t.Errorf("%d timer cycles ran, want 0", n)
	}
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, config.Defaults(), WithIntervalUnit(time.Hour))
	defer s.Stop()

	if err := s.Start(enabled(60)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "startup cycle", func() bool { return r.total() == 1 })
	if err := s.Start(enabled(60)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if n := r.count(TriggerStartup); n != 1 {
		t.Errorf("startup cycles = %d, want 1", n)
	}
}

func TestStopCancelsTimer(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, config.Defaults(), WithIntervalUnit(20*time.Millisecond))
	if err := s.Start(enabled(1)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "a timer cycle", func() bool { return r.count(TriggerTimer) >= 1 })

	s.Stop()
	if s.State() != Stopped {
		t.Fatalf("state = %s", s.State())
	}
	n := r.total()
	time.Sleep(100 * time.Millisecond)
	if r.total() != n {
		t.Errorf("cycles ran after Stop: %d -> %d", n, r.total())
	}
	s.Stop() // idempotent
}

func TestStopWaitsForInflightCycle(t *testing.T) {
	r := &fakeRunner{gate: make(chan struct{}), started: make(chan Trigger, 1)}
	s := New(r, config.Defaults(), WithIntervalUnit(time.Hour))
	if err := s.Start(enabled(60)); err != nil {
		t.Fatal(err)
	}
	<-r.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was running")
	case <-time.After(50 * time.Millisecond):
	}
	if st := s.State(); st != Stopping {
		t.Errorf("state during stop = %s, want stopping", st)
	}
	close(r.gate)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestForcePollWhenStopped(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, config.Defaults())

	rep, err := s.ForcePoll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Trigger != TriggerManual {
		t.Errorf("trigger = %s", rep.Trigger)
	}
	if s.State() != Stopped {
		t.Errorf("ForcePoll changed state to %s", s.State())
	}
	if s.Snapshot().LastReport == nil {
		t.Error("last report not recorded")
	}
}

func TestForcePollReturnsCycleError(t *testing.T) {
	boom := errors.New("remote unreachable")
	s := New(&fakeRunner{err: boom}, config.Defaults())
	if _, err := s.ForcePoll(context.Background()); !errors.Is(err, boom) {
		t.Errorf("ForcePoll error = %v, want %v", err, boom)
	}
}

func TestForcePollCoalesces(t *testing.T) {
	r := &fakeRunner{gate: make(chan struct{}), started: make(chan Trigger, 4)}
	s := New(r, config.Defaults())

	var wg sync.WaitGroup
	reports := make([]*Report, 3)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i], _ = s.ForcePoll(context.Background())
		}()
	}
	<-r.started
	time.Sleep(30 * time.Millisecond)
	close(r.gate)
	wg.Wait()

	if n := r.total(); n != 1 {
		t.Fatalf("cycles = %d, want 1", n)
	}
	for i, rep := range reports {
		if rep == nil || rep.Trigger != TriggerManual {
			t.Errorf("report %d = %+v", i, rep)
		}
	}
}

func TestForcePollContextCancel(t *testing.T) {
	r := &fakeRunner{gate: make(chan struct{}), started: make(chan Trigger, 1)}
	s := New(r, config.Defaults())
	defer close(r.gate)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.ForcePoll(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ForcePoll error = %v", err)
	}
}

func TestTickSkippedDuringCycle(t *testing.T) {
	r := &fakeRunner{gate: make(chan struct{}), started: make(chan Trigger, 16)}
	s := New(r, config.Defaults(), WithIntervalUnit(10*time.Millisecond))
	if err := s.Start(enabled(1)); err != nil {
		t.Fatal(err)
	}
	<-r.started
	// Several intervals elapse while the startup cycle is blocked.
	time.Sleep(80 * time.Millisecond)
	if n := r.total(); n != 1 {
		t.Errorf("cycles during blocked startup = %d, want 1", n)
	}
	close(r.gate)
	s.Stop()
	if atomic.LoadInt32(&r.overlap) != 0 {
		t.Error("cycles overlapped")
	}
}

func TestReconfigureTransitions(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, config.Defaults(), WithIntervalUnit(time.Hour))

	if err := s.Reconfigure(enabled(60)); err != nil {
		t.Fatal(err)
	}
	if s.State() != Running {
		t.Fatalf("enable: state = %s", s.State())
	}

	disabled := enabled(60)
	disabled.Enabled = false
	if err := s.Reconfigure(disabled); err != nil {
		t.Fatal(err)
	}
	if s.State() != Stopped {
		t.Fatalf("disable: state = %s", s.State())
	}
	if s.Config().Enabled {
		t.Error("cached config not replaced")
	}
}

func TestReconfigureIntervalRearms(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, config.Defaults(), WithIntervalUnit(time.Hour))
	defer s.Stop()

	if err := s.Start(enabled(60)); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot().NextRun
	if before == nil {
		t.Fatal("no next run while running")
	}

	// 60 units of an hour to 1 unit: next run moves close to now.
	if err := s.Reconfigure(enabled(1)); err != nil {
		t.Fatal(err)
	}
	if s.State() != Running {
		t.Fatalf("state = %s", s.State())
	}
	var after *time.Time
	waitFor(t, "re-armed entry", func() bool {
		after = s.Snapshot().NextRun
		return after != nil && after.Before(*before)
	})
	if d := time.Until(*after); d > time.Hour+time.Minute {
		t.Errorf("next run in %s, want within the new interval", d)
	}
}

func TestRefreshDoesNotStart(t *testing.T) {
	s := New(&fakeRunner{}, config.Defaults())
	s.Refresh(enabled(15))
	if s.State() != Stopped {
		t.Errorf("Refresh changed state to %s", s.State())
	}
	if got := s.Config().CheckIntervalMinutes; got != 15 {
		t.Errorf("cached interval = %d", got)
	}
}

func TestStateEvents(t *testing.T) {
	hub := events.NewHub()
	ch, cancel := hub.Subscribe(8)
	defer cancel()

	s := New(&fakeRunner{}, config.Defaults(), WithIntervalUnit(time.Hour), WithPublisher(hub))
	if err := s.Start(enabled(60)); err != nil {
		t.Fatal(err)
	}
	s.Stop()

	var got []any
	for len(got) < 2 {
		select {
		case ev := <-ch:
			if ev.Type == events.ServiceState {
				got = append(got, ev.Payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("state events = %v", got)
		}
	}
	if got[0] != "running" || got[1] != "stopped" {
		t.Errorf("state events = %v", got)
	}
}

func TestEveryNext(t *testing.T) {
	now := time.Now()
	e := &every{d: time.Minute, first: now.Add(10 * time.Second)}
	if got := e.Next(now); !got.Equal(now.Add(10 * time.Second)) {
		t.Errorf("first Next = %v", got)
	}
	if got := e.Next(now); !got.Equal(now.Add(time.Minute)) {
		t.Errorf("second Next = %v", got)
	}

	overdue := &every{d: time.Minute, first: now.Add(-time.Second)}
	if got := overdue.Next(now); !got.Equal(now) {
		t.Errorf("overdue Next = %v, want now", got)
	}
}

func TestStateMarshalText(t *testing.T) {
	for st, want := range map[State]string{Stopped: "stopped", Starting: "starting", Running: "running", Stopping: "stopping"} {
		b, _ := st.MarshalText()
		if string(b) != want {
			t.Errorf("%d marshals to %q, want %q", st, b, want)
		}
	}
}
