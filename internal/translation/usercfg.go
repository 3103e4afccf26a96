package translation

import (
	"strings"
)

const (
	keyLanguage      = "g_language"
	keyLanguageAudio = "g_languageAudio"
	audioLanguage    = "english"
)

func cfgKey(line string) (string, string, bool) {
	k, v, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}

func isLanguageKey(k string) bool {
	return strings.EqualFold(k, keyLanguage) || strings.EqualFold(k, keyLanguageAudio)
}

func splitLines(content string) ([]string, string) {
	eol := "\n"
	if strings.Contains(content, "\r\n") {
		eol = "\r\n"
	}
	content = strings.TrimRight(content, "\r\n")
	if content == "" {
		return nil, eol
	}
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n"), eol
}

// hasLanguage reports whether user.cfg selects folder as the game language.
func hasLanguage(content, folder string) bool {
	lines, _ := splitLines(content)
	for _, line := range lines {
		if k, v, ok := cfgKey(line); ok && strings.EqualFold(k, keyLanguage) && strings.EqualFold(v, folder) {
			return true
		}
	}
	return false
}

// hasAnyLanguage reports whether user.cfg sets any language key.
func hasAnyLanguage(content string) bool {
	lines, _ := splitLines(content)
	for _, line := range lines {
		if k, _, ok := cfgKey(line); ok && isLanguageKey(k) {
			return true
		}
	}
	return false
}

// stripLanguage removes language lines and keeps everything else in order.
func stripLanguage(content string) string {
	lines, eol := splitLines(content)
	kept := lines[:0]
	for _, line := range lines {
		if k, _, ok := cfgKey(line); ok && isLanguageKey(k) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, eol) + eol
}

// mergeLanguage replaces the language lines of user.cfg with ones selecting folder.
func mergeLanguage(content, folder string) string {
	_, eol := splitLines(content)
	base := stripLanguage(content)
	return base + keyLanguage + " = " + folder + eol + keyLanguageAudio + " = " + audioLanguage + eol
}
