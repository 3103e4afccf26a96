package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Store persists BackgroundServiceConfig as JSON. Writes are atomic
// (temp file + rename) and serialized across processes by a sidecar lock.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the Store at the standard location.
func DefaultStore() *Store {
	return NewStore(BackgroundServicePath())
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the stored configuration. A missing file yields Defaults with
// no error; undecodable or invalid content yields ErrConfigCorrupt.
func (s *Store) Load() (BackgroundServiceConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("%w: read %s: %w", ErrPersistence, s.path, err)
	}

	var cfg BackgroundServiceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("%w: %s: %w", ErrConfigCorrupt, s.path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Defaults(), fmt.Errorf("%w: %s: %w", ErrConfigCorrupt, s.path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load for startup paths: any failure is logged and the
// defaults are used.
func (s *Store) LoadOrDefault() BackgroundServiceConfig {
	cfg, err := s.Load()
	if err != nil {
		log.Printf("[config] %v, using defaults", err)
	}
	return cfg
}

// Save validates and durably writes cfg.
func (s *Store) Save(cfg BackgroundServiceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeLocked(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// writeLocked creates the parent directory and writes data atomically while
// holding the sidecar lock.
func writeLocked(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	lock := NewFileLock(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()
	return WriteFileAtomic(path, data, 0644)
}

// WriteFileAtomic writes data to a temp file in the same directory, syncs it
// and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
