package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"multitool/internal/autostart"
	"multitool/internal/config"
	"multitool/internal/scheduler"
)

// GetConfig returns the config the scheduler currently holds.
func (s *Service) GetConfig() config.BackgroundServiceConfig {
	return s.sched.Config()
}

// LoadConfig reads the persisted config without applying it.
func (s *Service) LoadConfig() (config.BackgroundServiceConfig, error) {
	return s.store.Load()
}

// SetConfig persists cfg and applies it live: auto-start follows
// start_with_system and the scheduler starts, stops or re-arms. Nothing is
// applied when persisting fails. An auto-start failure is returned after the
// scheduler change has been applied.
func (s *Service) SetConfig(cfg config.BackgroundServiceConfig) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	if err := s.store.Save(cfg); err != nil {
		return err
	}

	autoErr := s.syncAutostart(cfg.StartWithSystem)
	if autoErr != nil {
		log.Printf("[service] sync auto-start: %v", autoErr)
	}
	if err := s.sched.Reconfigure(cfg); err != nil {
		return errors.Join(err, autoErr)
	}
	return autoErr
}

// SaveConfig persists cfg. A running scheduler picks it up; a stopped one
// only caches it. Auto-start is left alone.
func (s *Service) SaveConfig(cfg config.BackgroundServiceConfig) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	if err := s.store.Save(cfg); err != nil {
		return err
	}
	if s.sched.State() == scheduler.Running {
		return s.sched.Reconfigure(cfg)
	}
	s.sched.Refresh(cfg)
	return nil
}

func (s *Service) syncAutostart(enable bool) error {
	// Enable is idempotent and rewrites a registration pointing at a stale
	// executable, so it always runs.
	if enable {
		return s.autostart.Enable()
	}
	on, err := s.autostart.IsEnabled()
	switch {
	case errors.Is(err, autostart.ErrUnsupported):
		// Nothing can be registered on this platform, so nothing to remove.
		return nil
	case err == nil && !on:
		return nil
	}
	return s.autostart.Disable()
}

// StartBackground starts the scheduler with the cached config.
// scheduler.ErrDisabled is returned when that config is disabled.
func (s *Service) StartBackground() error {
	return s.sched.Start(s.sched.Config())
}

// StopBackground stops the scheduler. It is idempotent.
func (s *Service) StopBackground() {
	s.sched.Stop()
}

// ForcePoll runs one poll cycle now and returns its report.
func (s *Service) ForcePoll(ctx context.Context) (*scheduler.Report, error) {
	return s.sched.ForcePoll(ctx)
}

// Status is the get_background_service_status payload.
func (s *Service) Status() scheduler.Status {
	return s.sched.Snapshot()
}

// IsAutoStartEnabled reports whether the OS starts the app at login.
func (s *Service) IsAutoStartEnabled() (bool, error) {
	return s.autostart.IsEnabled()
}

// EnableAutoStart registers the app to start at login.
func (s *Service) EnableAutoStart() error {
	if err := s.autostart.Enable(); err != nil {
		return fmt.Errorf("enable auto-start: %w", err)
	}
	return nil
}

// DisableAutoStart removes the login registration.
func (s *Service) DisableAutoStart() error {
	if err := s.autostart.Disable(); err != nil {
		return fmt.Errorf("disable auto-start: %w", err)
	}
	return nil
}

// IsRunningAsAdmin reports whether the process has administrator rights.
// It is always false off Windows.
func (s *Service) IsRunningAsAdmin() bool {
	return s.elevator.IsElevated()
}

// RestartAsAdmin launches an elevated copy of the app, then hands over by
// calling the restart hook. A declined elevation leaves this process running.
func (s *Service) RestartAsAdmin() error {
	if err := s.elevator.Relaunch(); err != nil {
		return fmt.Errorf("restart as administrator: %w", err)
	}
	log.Printf("[service] elevated copy launched, handing over")
	if s.onRestart != nil {
		go s.onRestart()
	}
	return nil
}
