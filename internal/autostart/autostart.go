// Package autostart integrates the application with the OS login mechanism
// and with privilege elevation.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// AppName is the registration key (Windows Run value name, desktop entry name).
	AppName = "MultitoolV2"
	// MinimizedArg is passed on login so the app starts in the tray.
	MinimizedArg = "--minimized"
)

// ErrPlatformQuery means the OS registration API could not be queried or
// changed. Callers treat the feature as unsupported rather than failing hard.
var ErrPlatformQuery = errors.New("autostart: platform query failed")

// ErrUnsupported is returned on platforms with no login mechanism.
var ErrUnsupported = fmt.Errorf("%w: not supported on %s", ErrPlatformQuery, runtime.GOOS)

// Manager toggles and queries OS auto-start. Enable and Disable are idempotent.
type Manager interface {
	IsEnabled() (bool, error)
	Enable() error
	Disable() error
}

// Target is what gets launched at login.
type Target struct {
	Executable string
	Args       []string
}

// CommandLine renders the target the way a Run key expects it.
func (t Target) CommandLine() string {
	parts := []string{`"` + t.Executable + `"`}
	parts = append(parts, t.Args...)
	return strings.Join(parts, " ")
}

// CurrentTarget returns the running executable with MinimizedArg.
func CurrentTarget() (Target, error) {
	exe, err := os.Executable()
	if err != nil {
		return Target{}, fmt.Errorf("%w: resolve executable: %w", ErrPlatformQuery, err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return Target{Executable: exe, Args: []string{MinimizedArg}}, nil
}

// New returns the Manager for the running OS.
func New() Manager {
	target, err := CurrentTarget()
	if err != nil {
		return unsupported{err: err}
	}
	return newPlatform(target)
}

type unsupported struct{ err error }

func (u unsupported) IsEnabled() (bool, error) { return false, u.err }
func (u unsupported) Enable() error            { return u.err }
func (u unsupported) Disable() error           { return u.err }
