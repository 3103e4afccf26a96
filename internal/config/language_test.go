package config

import "testing"

func TestLanguageFolder(t *testing.T) {
	tests := []struct {
		lang   string
		want   string
		wantOK bool
	}{
		{"fr", "french_(france)", true},
		{"fr-FR", "french_(france)", true},
		{"fr_CA", "french_(france)", true},
		{"en", "english", true},
		{"en-GB", "english", true},
		{"de", "german_(germany)", true},
		{"es", "spanish_(spain)", true},
		{"it", "italian_(italy)", true},
		{"", "", false},
		{"tlh", "", false},
		{"not a tag", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got, ok := LanguageFolder(tt.lang)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("LanguageFolder(%q) = %q, %v; want %q, %v", tt.lang, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	if got, ok := NormalizeLanguage("fr-BE"); !ok || got != "fr" {
		t.Errorf("NormalizeLanguage(fr-BE) = %q, %v", got, ok)
	}
	if got, ok := NormalizeLanguage("en_US"); !ok || got != "en" {
		t.Errorf("NormalizeLanguage(en_US) = %q, %v", got, ok)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		system string
		want   string
	}{
		{"de-DE", "de"},
		{"en_US", "en"},
		{"", DefaultLanguage},
		{"tlh", DefaultLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.system, func(t *testing.T) {
			withSystemLanguage(t, tt.system)
			if got := DetectLanguage(); got != tt.want {
				t.Errorf("DetectLanguage() with %q = %q, want %q", tt.system, got, tt.want)
			}
		})
	}
}
