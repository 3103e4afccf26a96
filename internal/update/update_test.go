package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"multitool/internal/buildinfo"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		current   string
		available string
		want      bool
	}{
		{"v1.0.0", "v1.0.1", true},
		{"v1.0.0", "v1.1.0", true},
		{"v1.0.0", "v2.0.0", true},
		{"v1.2.3", "v1.2.3", false},
		{"v1.2.3", "v1.2.2", false},
		{"v2.0.0", "v1.9.9", false},
		{"1.0.0", "1.0.1", true},       // without v prefix
		{"v1.0.0", "1.0.1", true},      // mixed prefix
		{"v1.0.0-rc1", "v1.0.1", true}, // pre-release stripped
		{"invalid", "v1.0.0", false},
		{"v1.0.0", "invalid", false},
		{"v1.0", "v1.0.1", false}, // incomplete version
	}

	for _, tt := range tests {
		t.Run(tt.current+"_vs_"+tt.available, func(t *testing.T) {
			got := CompareVersions(tt.current, tt.available)
			if got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %v, want %v", tt.current, tt.available, got, tt.want)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"v1.2.3", []int{1, 2, 3}},
		{"1.2.3", []int{1, 2, 3}},
		{"v0.0.1", []int{0, 0, 1}},
		{"v1.2.3-rc1", []int{1, 2, 3}},
		{"invalid", nil},
		{"v1.2", nil},
		{"v1.2.3.4", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseVersion(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("parseVersion(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseVersion(%q) = nil, want %v", tt.input, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("parseVersion(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestShouldCheck(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name  string
		state UpdateState
		want  bool
	}{
		{"zero value", UpdateState{}, true},
		{"old timestamp", UpdateState{LastCheck: 1000000}, true},
		{"fresh", UpdateState{LastCheck: now.Add(-time.Minute).Unix()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldCheck(tt.state, now); got != tt.want {
				t.Errorf("ShouldCheck() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlatformBinaryName(t *testing.T) {
	name := platformBinaryName()
	if !strings.HasPrefix(name, "multitool-"+runtime.GOOS+"-") {
		t.Errorf("platformBinaryName() = %q", name)
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		t.Errorf("platformBinaryName() = %q, want .exe suffix", name)
	}
}

// releaseServer serves a latest release with one binary asset and its digest.
func releaseServer(t *testing.T, tag string, binary []byte, digest string) (*httptest.Server, *int32) {
	t.Helper()
	var latestHits int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/repos/Onivoid/MultitoolV2/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&latestHits, 1)
		rel := ReleaseInfo{
			TagName: tag,
			HTMLURL: "https://example.invalid/release",
			Assets: []Asset{
				{Name: platformBinaryName(), DownloadURL: srv.URL + "/bin"},
				{Name: platformBinaryName() + ".sha256", DownloadURL: srv.URL + "/bin.sha256"},
			},
		}
		json.NewEncoder(w).Encode(rel)
	})
	mux.HandleFunc("/bin", func(w http.ResponseWriter, r *http.Request) {
		w.Write(binary)
	})
	mux.HandleFunc("/bin.sha256", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(digest + "  " + platformBinaryName() + "\n"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &latestHits
}

func newTestChecker(t *testing.T, apiBase string, build buildinfo.Info) *Checker {
	dir := t.TempDir()
	return &Checker{
		Build:      build,
		Repo:       "Onivoid/MultitoolV2",
		APIBase:    apiBase,
		Client:     &http.Client{Timeout: 5 * time.Second},
		StatePath:  filepath.Join(dir, ".update-state.json"),
		StagingDir: filepath.Join(dir, "update"),
	}
}

var githubBuild = buildinfo.Info{Distribution: buildinfo.GitHub, Version: "v1.0.0", CanAutoUpdate: true}

func sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func TestPollStagesVerifiedBinary(t *testing.T) {
	bin := []byte("new binary")
	srv, _ := releaseServer(t, "v1.1.0", bin, sum(bin))
	c := newTestChecker(t, srv.URL, githubBuild)

	st, err := c.Poll(context.Background(), true)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !st.Available || st.Latest != "v1.1.0" || st.Staged == "" {
		t.Fatalf("status = %+v", st)
	}
	got, err := os.ReadFile(st.Staged)
	if err != nil || string(got) != string(bin) {
		t.Errorf("staged content = %q, %v", got, err)
	}
}

func TestPollChecksumMismatch(t *testing.T) {
	srv, _ := releaseServer(t, "v1.1.0", []byte("tampered"), sum([]byte("original")))
	c := newTestChecker(t, srv.URL, githubBuild)

	_, err := c.Poll(context.Background(), true)
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("Poll error = %v, want ErrChecksum", err)
	}
	if _, err := os.Stat(filepath.Join(c.StagingDir, platformBinaryName())); !os.IsNotExist(err) {
		t.Error("mismatched binary was staged")
	}
}

func TestPollNotifyOnlyDoesNotDownload(t *testing.T) {
	srv, _ := releaseServer(t, "v1.1.0", []byte("x"), sum([]byte("x")))
	c := newTestChecker(t, srv.URL, githubBuild)

	st, err := c.Poll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Available || st.Staged != "" {
		t.Errorf("status = %+v", st)
	}
}

func TestPollUsesCachedState(t *testing.T) {
	srv, hits := releaseServer(t, "v1.1.0", []byte("x"), sum([]byte("x")))
	c := newTestChecker(t, srv.URL, githubBuild)

	if _, err := c.Poll(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	st, err := c.Poll(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Cached || !st.Available {
		t.Errorf("second poll = %+v, want cached available", st)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("release API hit %d times, want 1", n)
	}
}

func TestPollRefusedDistributions(t *testing.T) {
	tests := []struct {
		name  string
		build buildinfo.Info
		want  error
	}{
		{"store", buildinfo.Info{Distribution: buildinfo.MicrosoftStore, Version: "v1.0.0"}, ErrNotAllowed},
		{"unknown", buildinfo.Info{Distribution: buildinfo.Unknown, Version: "v1.0.0"}, ErrNotAllowed},
		{"dev", buildinfo.Info{Distribution: buildinfo.GitHub, Version: "dev", CanAutoUpdate: true}, ErrDevBuild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Errorf("unexpected request %s", r.URL)
			}))
			defer srv.Close()
			c := newTestChecker(t, srv.URL, tt.build)
			if _, err := c.Poll(context.Background(), true); !errors.Is(err, tt.want) {
				t.Errorf("Poll error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApplyStagedDiscardsStale(t *testing.T) {
	c := newTestChecker(t, "http://unused", githubBuild)
	os.MkdirAll(c.StagingDir, 0755)
	staged := filepath.Join(c.StagingDir, platformBinaryName())
	os.WriteFile(staged, []byte("old"), 0755)
	c.saveState(UpdateState{LastCheck: time.Now().Unix(), LatestVersion: "v1.0.0", Staged: staged})

	v, err := c.ApplyStaged()
	if err != nil || v != "" {
		t.Fatalf("ApplyStaged = %q, %v", v, err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Error("stale staged binary not removed")
	}
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	self := filepath.Join(dir, "multitool")
	next := filepath.Join(dir, "next")
	os.WriteFile(self, []byte("v1"), 0755)
	os.WriteFile(next, []byte("v2"), 0755)

	if err := replaceFile(self, next); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(self)
	if string(got) != "v2" {
		t.Errorf("binary content = %q", got)
	}
}
