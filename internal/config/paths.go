package config

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDir is the per-user directory holding every persisted file.
	ConfigDir = ".multitool"

	BackgroundServiceFile    = "background_service.json"
	TranslationsSelectedFile = "translations_selected.json"
	SettingsFile             = "settings.yaml"
	UpdateStateFile          = ".update-state.json"
	StagingDir               = "update"

	// HomeEnv overrides the config directory (tests, portable installs).
	HomeEnv = "MULTITOOL_HOME"
)

// ConfigDirPath returns ~/.multitool, or $MULTITOOL_HOME when set.
func ConfigDirPath() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ConfigDir)
}

// BackgroundServicePath returns ~/.multitool/background_service.json
func BackgroundServicePath() string {
	return filepath.Join(ConfigDirPath(), BackgroundServiceFile)
}

// TranslationsSelectedPath returns ~/.multitool/translations_selected.json
func TranslationsSelectedPath() string {
	return filepath.Join(ConfigDirPath(), TranslationsSelectedFile)
}

// SettingsPath returns ~/.multitool/settings.yaml
func SettingsPath() string {
	return filepath.Join(ConfigDirPath(), SettingsFile)
}

// UpdateStatePath returns ~/.multitool/.update-state.json
func UpdateStatePath() string {
	return filepath.Join(ConfigDirPath(), UpdateStateFile)
}

// StagingDirPath returns ~/.multitool/update/
func StagingDirPath() string {
	return filepath.Join(ConfigDirPath(), StagingDir)
}
