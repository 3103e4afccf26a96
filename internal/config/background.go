package config

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DefaultCheckIntervalMinutes = 60
	MinCheckIntervalMinutes     = 1
	// MaxCheckIntervalMinutes is one year; longer periods overflow time.Duration
	// for coarse interval units.
	MaxCheckIntervalMinutes = 365 * 24 * 60
	// RecommendedMinIntervalMinutes is product policy; shorter intervals are
	// accepted but logged by the scheduler.
	RecommendedMinIntervalMinutes = 5
	DefaultLanguage               = "fr"
)

// BackgroundServiceConfig is the persisted configuration of the background
// update service. It is the only authoritative scheduler state.
type BackgroundServiceConfig struct {
	Enabled              bool   `json:"enabled"`
	CheckIntervalMinutes int    `json:"check_interval_minutes"`
	AutoUpdate           bool   `json:"auto_update"`
	StartWithSystem      bool   `json:"start_with_system"`
	Language             string `json:"language"`
}

// Defaults returns the compiled-in configuration used when nothing valid is stored.
func Defaults() BackgroundServiceConfig {
	return BackgroundServiceConfig{
		Enabled:              false,
		CheckIntervalMinutes: DefaultCheckIntervalMinutes,
		AutoUpdate:           true,
		StartWithSystem:      false,
		Language:             DefaultLanguage,
	}
}

// Validate rejects records the scheduler cannot act on.
func (c BackgroundServiceConfig) Validate() error {
	if c.CheckIntervalMinutes < MinCheckIntervalMinutes {
		return fmt.Errorf("%w: check_interval_minutes must be >= %d, got %d",
			ErrInvalidConfig, MinCheckIntervalMinutes, c.CheckIntervalMinutes)
	}
	if c.CheckIntervalMinutes > MaxCheckIntervalMinutes {
		return fmt.Errorf("%w: check_interval_minutes must be <= %d, got %d",
			ErrInvalidConfig, MaxCheckIntervalMinutes, c.CheckIntervalMinutes)
	}
	if _, ok := LanguageFolder(c.Language); !ok {
		return fmt.Errorf("%w: unsupported language %q (supported: %v)",
			ErrInvalidConfig, c.Language, SupportedLanguages())
	}
	return nil
}

// Interval returns the poll period, clamped to the accepted range.
func (c BackgroundServiceConfig) Interval() time.Duration {
	return time.Duration(c.ClampedIntervalMinutes()) * time.Minute
}

// ClampedIntervalMinutes returns CheckIntervalMinutes bounded by
// MinCheckIntervalMinutes and MaxCheckIntervalMinutes.
func (c BackgroundServiceConfig) ClampedIntervalMinutes() int {
	n := c.CheckIntervalMinutes
	if n < MinCheckIntervalMinutes {
		return MinCheckIntervalMinutes
	}
	if n > MaxCheckIntervalMinutes {
		return MaxCheckIntervalMinutes
	}
	return n
}

// BelowPolicy reports an interval shorter than the recommended minimum.
func (c BackgroundServiceConfig) BelowPolicy() bool {
	return c.CheckIntervalMinutes < RecommendedMinIntervalMinutes
}

// UnmarshalJSON fills absent fields from Defaults and accepts the legacy
// "start_with_windows" key. A missing language is taken from the OS locale.
func (c *BackgroundServiceConfig) UnmarshalJSON(data []byte) error {
	type alias BackgroundServiceConfig
	*c = Defaults()
	aux := struct {
		*alias
		StartWithSystem  *bool   `json:"start_with_system"`
		StartWithWindows *bool   `json:"start_with_windows"`
		Language         *string `json:"language"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.StartWithSystem != nil:
		c.StartWithSystem = *aux.StartWithSystem
	case aux.StartWithWindows != nil:
		c.StartWithSystem = *aux.StartWithWindows
	}

	if aux.Language != nil {
		c.Language = *aux.Language
	} else {
		c.Language = DetectLanguage()
	}
	return nil
}
