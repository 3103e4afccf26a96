package autostart

import (
	"fmt"
	"runtime"
)

// ErrElevationUnsupported is returned where the app cannot relaunch itself
// with administrator rights.
var ErrElevationUnsupported = fmt.Errorf("%w: elevation not supported on %s", ErrPlatformQuery, runtime.GOOS)

// Elevator reports and acquires administrator rights.
type Elevator interface {
	// IsElevated reports whether the process runs with administrator rights.
	IsElevated() bool
	// Relaunch starts an elevated copy of the login target. The caller is
	// expected to exit once it returns nil.
	Relaunch() error
}

// NewElevator returns the Elevator for the running OS.
func NewElevator() Elevator {
	target, err := CurrentTarget()
	if err != nil {
		return noElevation{err: err}
	}
	return newElevator(target)
}

type noElevation struct{ err error }

func (noElevation) IsElevated() bool  { return false }
func (n noElevation) Relaunch() error { return n.err }
