package config

import (
	"strings"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
)

// localizationFolders maps supported languages to the folder name the game
// expects under data/Localization. The first entry is the fallback.
var localizationFolders = []struct {
	tag    language.Tag
	folder string
}{
	{language.French, "french_(france)"},
	{language.English, "english"},
	{language.German, "german_(germany)"},
	{language.Spanish, "spanish_(spain)"},
	{language.Italian, "italian_(italy)"},
}

var languageMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(localizationFolders))
	for i, lf := range localizationFolders {
		tags[i] = lf.tag
	}
	return language.NewMatcher(tags)
}()

func matchLanguage(lang string) (int, bool) {
	// POSIX locales carry an encoding and modifier: en_US.UTF-8@euro
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return 0, false
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return 0, false
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return 0, false
	}
	return idx, true
}

// LanguageFolder returns the localization folder name for lang ("fr" → "french_(france)").
func LanguageFolder(lang string) (string, bool) {
	idx, ok := matchLanguage(lang)
	if !ok {
		return "", false
	}
	return localizationFolders[idx].folder, true
}

// NormalizeLanguage reduces lang to the base code of the supported language it
// matches ("fr-CA" → "fr").
func NormalizeLanguage(lang string) (string, bool) {
	idx, ok := matchLanguage(lang)
	if !ok {
		return "", false
	}
	base, _ := localizationFolders[idx].tag.Base()
	return base.String(), true
}

// SupportedLanguages lists the base codes accepted in BackgroundServiceConfig.Language.
func SupportedLanguages() []string {
	out := make([]string, len(localizationFolders))
	for i, lf := range localizationFolders {
		base, _ := lf.tag.Base()
		out[i] = base.String()
	}
	return out
}

// systemLanguage is overridable in tests.
var systemLanguage = func() string {
	userLocale, err := locale.GetLocale()
	if err != nil {
		return ""
	}
	return userLocale
}

// DetectLanguage returns the OS locale when it maps to a supported language,
// DefaultLanguage otherwise.
func DetectLanguage() string {
	if lang, ok := NormalizeLanguage(systemLanguage()); ok {
		return lang
	}
	return DefaultLanguage
}
