package autostart

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// fileManager implements Manager for mechanisms driven by a single file
// (XDG desktop entries, LaunchAgent plists).
type fileManager struct {
	path   string
	tmpl   *template.Template
	target Target
}

func (m *fileManager) render() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, m.target); err != nil {
		return nil, fmt.Errorf("render %s: %w", m.tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

func (m *fileManager) IsEnabled() (bool, error) {
	_, err := os.Stat(m.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %w", ErrPlatformQuery, err)
}

// Enable writes the entry. An existing entry pointing at the same executable
// is left untouched; one pointing elsewhere is rewritten.
func (m *fileManager) Enable() error {
	want, err := m.render()
	if err != nil {
		return err
	}
	if have, err := os.ReadFile(m.path); err == nil && bytes.Equal(have, want) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrPlatformQuery, err)
	}
	if err := os.WriteFile(m.path, want, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrPlatformQuery, err)
	}
	return nil
}

func (m *fileManager) Disable() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrPlatformQuery, err)
	}
	return nil
}
