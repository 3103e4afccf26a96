//go:build !windows

package config

import (
	"os"

	"golang.org/x/sys/unix"
)

// Lock acquires an exclusive file lock (blocking).
func (fl *FileLock) Lock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return err
	}
	fl.f = f
	return nil
}

// Unlock releases the file lock.
func (fl *FileLock) Unlock() error {
	if fl.f == nil {
		return nil
	}
	f := fl.f
	fl.f = nil
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return f.Close()
}
