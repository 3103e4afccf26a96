package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Endpoints are the remote services the gateways and the action engine talk to.
type Endpoints struct {
	TranslationsAPI string `yaml:"translations_api"`
	NewsFeed        string `yaml:"news_feed"`
	CharactersAPI   string `yaml:"characters_api"`
	GitHubAPI       string `yaml:"github_api"`
	UserAgent       string `yaml:"user_agent"`
}

// HTTPSettings configures `multitool serve`.
type HTTPSettings struct {
	Addr   string   `yaml:"addr"`
	Tokens []string `yaml:"tokens,omitempty"`
}

// NotificationSettings configures notifications for background actions.
type NotificationSettings struct {
	Desktop bool `yaml:"desktop"`
	// WebhookFormat is "discord" (default), "slack" or "custom".
	WebhookURL      string `yaml:"webhook_url,omitempty"`
	WebhookFormat   string `yaml:"webhook_format,omitempty"`
	WebhookTemplate string `yaml:"webhook_template,omitempty"`
	// HookScript receives a JSON payload on stdin after every background update.
	HookScript string `yaml:"hook_script,omitempty"`
}

// Settings is the application-level YAML configuration. Unlike
// BackgroundServiceConfig it is edited by hand, not by the UI.
type Settings struct {
	GitHubRepo        string               `yaml:"github_repo"`
	Endpoints         Endpoints            `yaml:"endpoints"`
	HTTP              HTTPSettings         `yaml:"http"`
	LauncherLogPath   string               `yaml:"launcher_log_path,omitempty"`
	CacheDir          string               `yaml:"cache_dir,omitempty"`
	ExtraInstallPaths []string             `yaml:"extra_install_paths,omitempty"`
	ProtectedPaths    []string             `yaml:"protected_paths,omitempty"`
	ProbeTimeout      time.Duration        `yaml:"probe_timeout"`
	MaxParallelProbes int                  `yaml:"max_parallel_probes"`
	Notifications     NotificationSettings `yaml:"notifications"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		GitHubRepo: "Onivoid/MultitoolV2",
		Endpoints: Endpoints{
			TranslationsAPI: "https://multitool.onivoid.fr/api",
			NewsFeed:        "https://leonick.se/feeds/rsi/json",
			CharactersAPI:   "https://www.star-citizen-characters.com/api",
			GitHubAPI:       "https://api.github.com",
			UserAgent:       "MultitoolV2",
		},
		HTTP:              HTTPSettings{Addr: "127.0.0.1:7878"},
		LauncherLogPath:   defaultLauncherLogPath(),
		CacheDir:          defaultCacheDir(),
		ProbeTimeout:      30 * time.Second,
		MaxParallelProbes: 4,
		Notifications:     NotificationSettings{Desktop: true},
	}
}

func defaultLauncherLogPath() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	appData := os.Getenv("APPDATA")
	if appData == "" {
		return ""
	}
	return filepath.Join(appData, "rsilauncher", "logs", "log.log")
}

func defaultCacheDir() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	local := os.Getenv("LOCALAPPDATA")
	if local == "" {
		return ""
	}
	return filepath.Join(local, "Star Citizen")
}

// LoadSettings reads path over the defaults and applies MULTITOOL_* overrides.
// A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return DefaultSettings(), fmt.Errorf("%w: parse %s: %w", ErrConfigCorrupt, path, err)
		}
	}
	s.applyEnv()
	s.fillDefaults()
	return s, nil
}

// SaveSettings writes s as YAML.
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := writeLocked(path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *Settings) fillDefaults() {
	d := DefaultSettings()
	if s.ProbeTimeout <= 0 {
		s.ProbeTimeout = d.ProbeTimeout
	}
	if s.MaxParallelProbes <= 0 {
		s.MaxParallelProbes = d.MaxParallelProbes
	}
	if s.HTTP.Addr == "" {
		s.HTTP.Addr = d.HTTP.Addr
	}
	if s.GitHubRepo == "" {
		s.GitHubRepo = d.GitHubRepo
	}
	if s.Endpoints.UserAgent == "" {
		s.Endpoints.UserAgent = d.Endpoints.UserAgent
	}
}

func (s *Settings) applyEnv() {
	if v := os.Getenv("MULTITOOL_GITHUB_REPO"); v != "" {
		s.GitHubRepo = v
	}
	if v := os.Getenv("MULTITOOL_HTTP_ADDR"); v != "" {
		s.HTTP.Addr = v
	}
	if v := os.Getenv("MULTITOOL_HTTP_TOKENS"); v != "" {
		s.HTTP.Tokens = splitList(v)
	}
	if v := os.Getenv("MULTITOOL_LAUNCHER_LOG"); v != "" {
		s.LauncherLogPath = v
	}
	if v := os.Getenv("MULTITOOL_CACHE_DIR"); v != "" {
		s.CacheDir = v
	}
	if v := os.Getenv("MULTITOOL_EXTRA_INSTALL_PATHS"); v != "" {
		s.ExtraInstallPaths = splitList(v)
	}
	if v := os.Getenv("MULTITOOL_PROBE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.ProbeTimeout = d
		} else {
			log.Printf("[config] ignoring MULTITOOL_PROBE_TIMEOUT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("MULTITOOL_MAX_PARALLEL_PROBES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxParallelProbes = n
		}
	}
	if v := os.Getenv("MULTITOOL_WEBHOOK_URL"); v != "" {
		s.Notifications.WebhookURL = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadDotEnv loads every existing .env file in paths. Variables already set
// in the environment win.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[config] load %s: %v", p, err)
		}
	}
}

// DotEnvPaths returns the .env candidates: next to the executable, then the
// config directory.
func DotEnvPaths() []string {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), ".env"))
	}
	return append(paths, filepath.Join(ConfigDirPath(), ".env"))
}
