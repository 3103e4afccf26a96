package autostart

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

type registryManager struct {
	target Target
}

func newPlatform(target Target) Manager {
	return &registryManager{target: target}
}

func (m *registryManager) registered() (string, bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.QUERY_VALUE)
	if err != nil {
		return "", false, fmt.Errorf("%w: open Run key: %w", ErrPlatformQuery, err)
	}
	defer key.Close()

	v, _, err := key.GetStringValue(AppName)
	if errors.Is(err, registry.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %w", ErrPlatformQuery, AppName, err)
	}
	return v, true, nil
}

func (m *registryManager) IsEnabled() (bool, error) {
	_, ok, err := m.registered()
	return ok, err
}

// Enable writes the Run value, replacing one that points at another executable.
func (m *registryManager) Enable() error {
	want := m.target.CommandLine()
	have, ok, err := m.registered()
	if err != nil {
		return err
	}
	if ok && strings.EqualFold(strings.TrimSpace(have), want) {
		return nil
	}

	key, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("%w: open Run key: %w", ErrPlatformQuery, err)
	}
	defer key.Close()
	if err := key.SetStringValue(AppName, want); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrPlatformQuery, AppName, err)
	}
	return nil
}

func (m *registryManager) Disable() error {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("%w: open Run key: %w", ErrPlatformQuery, err)
	}
	defer key.Close()
	if err := key.DeleteValue(AppName); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %w", ErrPlatformQuery, AppName, err)
	}
	return nil
}
