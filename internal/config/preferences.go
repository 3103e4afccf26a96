package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// SettingsVariant selects which flavor of a translation pack the user wants.
type SettingsVariant string

const (
	VariantFR SettingsVariant = "FR"
	VariantEN SettingsVariant = "EN"
)

// TranslationSetting is the user's chosen content source for one channel.
type TranslationSetting struct {
	Link       *string `json:"link"`
	SettingsEN bool    `json:"settingsEN"`
}

// Variant maps the stored flag to a SettingsVariant.
func (s TranslationSetting) Variant() SettingsVariant {
	if s.SettingsEN {
		return VariantEN
	}
	return VariantFR
}

// HasLink reports whether a non-empty link is selected.
func (s *TranslationSetting) HasLink() bool {
	return s != nil && s.Link != nil && strings.TrimSpace(*s.Link) != ""
}

// LinkValue returns the selected link or "".
func (s *TranslationSetting) LinkValue() string {
	if !s.HasLink() {
		return ""
	}
	return strings.TrimSpace(*s.Link)
}

// TranslationSelections maps a channel (LIVE, PTU, ...) to its setting.
type TranslationSelections map[string]*TranslationSetting

// Channels returns the channel keys in sorted order.
func (s TranslationSelections) Channels() []string {
	out := make([]string, 0, len(s))
	for ch := range s {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// PreferencesStore persists TranslationSelections.
type PreferencesStore struct {
	mu   sync.Mutex
	path string
}

// NewPreferencesStore returns a store backed by path.
func NewPreferencesStore(path string) *PreferencesStore {
	return &PreferencesStore{path: path}
}

// DefaultPreferencesStore returns the store at the standard location.
func DefaultPreferencesStore() *PreferencesStore {
	return NewPreferencesStore(TranslationsSelectedPath())
}

// Load returns the stored selections. A missing file yields an empty map.
// Legacy layouts are migrated and the file is rewritten in the current format.
func (p *PreferencesStore) Load() (TranslationSelections, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return TranslationSelections{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, p.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return TranslationSelections{}, nil
	}

	sel, migrated, err := decodeSelections(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigCorrupt, p.path, err)
	}
	if migrated {
		log.Printf("[config] migrating legacy %s", p.path)
		if err := p.saveLocked(sel); err != nil {
			log.Printf("[config] rewrite migrated selections: %v", err)
		}
	}
	return sel, nil
}

// Save replaces the stored selections.
func (p *PreferencesStore) Save(sel TranslationSelections) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveLocked(sel)
}

// Set updates a single channel and persists the result.
func (p *PreferencesStore) Set(channel string, setting TranslationSetting) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return fmt.Errorf("%w: empty channel", ErrInvalidConfig)
	}
	sel, err := p.Load()
	if err != nil {
		return err
	}
	sel[channel] = &setting
	return p.Save(sel)
}

func (p *PreferencesStore) saveLocked(sel TranslationSelections) error {
	if sel == nil {
		sel = TranslationSelections{}
	}
	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}
	if err := writeLocked(p.path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// decodeSelections accepts the current format and two legacy ones:
// a bare link string (taken as the LIVE selection) and a map of channel to link.
func decodeSelections(data []byte) (TranslationSelections, bool, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}

	switch v := raw.(type) {
	case string:
		link := v
		return TranslationSelections{"LIVE": {Link: &link}}, true, nil
	case map[string]any:
		sel := make(TranslationSelections, len(v))
		migrated := false
		for ch, entry := range v {
			switch e := entry.(type) {
			case nil:
				sel[ch] = &TranslationSetting{}
			case string:
				link := e
				sel[ch] = &TranslationSetting{Link: &link}
				migrated = true
			case map[string]any:
				s := &TranslationSetting{}
				if l, ok := e["link"].(string); ok {
					s.Link = &l
				}
				if en, ok := e["settingsEN"].(bool); ok {
					s.SettingsEN = en
				}
				sel[ch] = s
			default:
				return nil, false, fmt.Errorf("channel %q: unexpected value %T", ch, entry)
			}
		}
		return sel, migrated, nil
	default:
		return nil, false, fmt.Errorf("unexpected top-level %T", raw)
	}
}
