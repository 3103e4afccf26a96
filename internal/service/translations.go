package service

import (
	"context"
	"log"

	"multitool/internal/config"
	"multitool/internal/gamepath"
	"multitool/internal/gateway"
)

func (s *Service) lang(lang string) string {
	if lang == "" {
		return s.sched.Config().Language
	}
	return lang
}

// IsGameTranslated reports whether the installation at path has lang installed.
func (s *Service) IsGameTranslated(path, lang string) bool {
	return s.engine.IsTranslated(path, s.lang(lang))
}

// IsTranslationUpToDate compares the installed pack with the one at link.
func (s *Service) IsTranslationUpToDate(ctx context.Context, path, link, lang string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx, s.settings.ProbeTimeout)
	defer cancel()
	return s.engine.IsUpToDate(ctx, path, link, s.lang(lang))
}

// InitTranslationFiles installs the pack at link into path.
func (s *Service) InitTranslationFiles(ctx context.Context, path, lang, link string) error {
	err := s.engine.Install(ctx, path, link, s.lang(lang))
	s.metrics.Action("install", err)
	if err == nil {
		log.Printf("[service] installed translation into %s", path)
	}
	return err
}

// UpdateTranslation replaces the installed pack with the one at link.
func (s *Service) UpdateTranslation(ctx context.Context, path, lang, link string) error {
	err := s.engine.Update(ctx, path, link, s.lang(lang))
	s.metrics.Action("update", err)
	return err
}

// UninstallTranslation removes every translation artifact from path.
func (s *Service) UninstallTranslation(path string) error {
	err := s.engine.Uninstall(path)
	s.metrics.Action("uninstall", err)
	return err
}

// Versions discovers installations and marks the translated ones for the
// configured language. up_to_date needs the network and is left to
// IsTranslationUpToDate.
func (s *Service) Versions() (gamepath.VersionPaths, error) {
	paths, err := s.discover.Scan()
	if err != nil {
		return paths, err
	}
	lang := s.lang("")
	for ch, v := range paths.Versions {
		v.Translated = s.engine.IsTranslated(v.Path, lang)
		paths.Versions[ch] = v
	}
	return paths, nil
}

// Translations lists the translations offered by the community API.
func (s *Service) Translations(ctx context.Context) ([]gateway.TranslationOption, error) {
	return s.gateway.Translations(ctx)
}

// TranslationBySetting resolves the download link for a setting type.
func (s *Service) TranslationBySetting(ctx context.Context, settingType string) (gateway.TranslationLink, error) {
	return s.gateway.TranslationBySetting(ctx, settingType)
}

// LoadTranslationsSelected returns the per-channel translation choices.
func (s *Service) LoadTranslationsSelected() (config.TranslationSelections, error) {
	return s.prefs.Load()
}

// SaveTranslationsSelected replaces the per-channel translation choices.
func (s *Service) SaveTranslationsSelected(sel config.TranslationSelections) error {
	return s.prefs.Save(sel)
}
