package config

import "os"

// FileLock serializes writers across processes (the daemon and CLI invocations)
// through an advisory lock on a sidecar file.
// Platform-specific implementations are in filelock_unix.go and filelock_windows.go.
type FileLock struct {
	path string
	f    *os.File
}

// NewFileLock creates a new file lock for the given path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}
