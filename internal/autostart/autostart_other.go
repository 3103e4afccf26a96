//go:build !linux && !darwin && !windows

package autostart

func newPlatform(Target) Manager {
	return unsupported{err: ErrUnsupported}
}
