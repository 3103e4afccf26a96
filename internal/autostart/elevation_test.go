//go:build !windows

package autostart

import (
	"errors"
	"testing"
)

func TestElevationUnsupported(t *testing.T) {
	e := NewElevator()
	if e.IsElevated() {
		t.Error("IsElevated = true off Windows")
	}
	if err := e.Relaunch(); !errors.Is(err, ErrPlatformQuery) {
		t.Errorf("Relaunch = %v, want ErrPlatformQuery", err)
	}
}
