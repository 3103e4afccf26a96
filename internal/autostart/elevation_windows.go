package autostart

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

type tokenElevator struct {
	target Target
}

func newElevator(target Target) Elevator {
	return &tokenElevator{target: target}
}

func (e *tokenElevator) IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// Relaunch asks UAC for consent and starts the target hidden. It blocks
// until the prompt is answered; a declined prompt is an error.
func (e *tokenElevator) Relaunch() error {
	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(e.target.Executable)
	if err != nil {
		return fmt.Errorf("%w: executable path: %w", ErrPlatformQuery, err)
	}
	args, err := windows.UTF16PtrFromString(strings.Join(e.target.Args, " "))
	if err != nil {
		return err
	}
	dir, err := windows.UTF16PtrFromString(filepath.Dir(e.target.Executable))
	if err != nil {
		return err
	}
	if err := windows.ShellExecute(0, verb, file, args, dir, windows.SW_HIDE); err != nil {
		return fmt.Errorf("%w: relaunch as administrator: %w", ErrPlatformQuery, err)
	}
	return nil
}
