//go:build !windows

package autostart

func newElevator(Target) Elevator {
	return noElevation{err: ErrElevationUnsupported}
}
