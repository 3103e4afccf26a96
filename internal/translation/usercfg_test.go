package translation

import "testing"

func TestMergeLanguage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", "g_language = french_(france)\ng_languageAudio = english\n"},
		{"replaces existing", "g_language = english\ng_languageAudio = english\n", "g_language = french_(france)\ng_languageAudio = english\n"},
		{"keeps other lines", "sys_spec = 3\nG_LANGUAGE=german_(germany)\n", "sys_spec = 3\ng_language = french_(france)\ng_languageAudio = english\n"},
		{"no trailing newline", "sys_spec = 3", "sys_spec = 3\ng_language = french_(france)\ng_languageAudio = english\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeLanguage(tt.content, "french_(france)"); got != tt.want {
				t.Errorf("mergeLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasLanguage(t *testing.T) {
	if !hasLanguage("x = 1\ng_language = french_(france)\n", "french_(france)") {
		t.Error("expected match")
	}
	if hasLanguage("g_languageAudio = french_(france)\n", "french_(france)") {
		t.Error("audio key must not count as game language")
	}
	if hasLanguage("# g_language = french_(france)\n", "french_(france)") {
		t.Error("comment must not count")
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("\xef\xbb\xbfa=b\r\nc=d\r\n"))
	b := Digest([]byte("  a=b\nc=d  "))
	if a != b {
		t.Errorf("Digest differs for equivalent content: %s vs %s", a, b)
	}
	if Digest([]byte("a=b")) == Digest([]byte("a=c")) {
		t.Error("Digest equal for different content")
	}
	if Digest([]byte("name=caf\xe9\n")) == Digest([]byte("name=caf\xe8\n")) {
		t.Error("Digest equal for different invalid UTF-8 content")
	}
}

func TestSameContentRejectsInvalidLocal(t *testing.T) {
	tests := []struct {
		name          string
		local, remote string
		want          bool
	}{
		{"identical", "\xef\xbb\xbfa=b\r\n", "a=b\n", true},
		{"different", "a=b", "a=c", false},
		{"invalid local", "name=caf\xe9", "name=caf\xe9", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameContent([]byte(tt.local), []byte(tt.remote)); got != tt.want {
				t.Errorf("sameContent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithBOMKeepsBytes(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a=b\n", "\xef\xbb\xbfa=b\n"},
		{"\xef\xbb\xbfa=b\n", "\xef\xbb\xbfa=b\n"},
		{"name=caf\xe9\n", "\xef\xbb\xbfname=caf\xe9\n"},
	}
	for _, tt := range tests {
		if got := string(withBOM([]byte(tt.in))); got != tt.want {
			t.Errorf("withBOM(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
