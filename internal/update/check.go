package update

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"multitool/internal/buildinfo"
	"multitool/internal/config"
)

// Checker queries the release feed of one repository on behalf of the
// running build.
type Checker struct {
	Build      buildinfo.Info
	Repo       string // owner/name
	APIBase    string
	UserAgent  string
	Client     *http.Client
	StatePath  string
	StagingDir string

	now func() time.Time
}

// NewChecker wires a Checker from app settings.
func NewChecker(build buildinfo.Info, s config.Settings) *Checker {
	repo := s.GitHubRepo
	if repo == "" {
		repo = build.GitHubRepo
	}
	return &Checker{
		Build:      build,
		Repo:       repo,
		APIBase:    s.Endpoints.GitHubAPI,
		UserAgent:  s.Endpoints.UserAgent,
		Client:     &http.Client{Timeout: 15 * time.Second},
		StatePath:  config.UpdateStatePath(),
		StagingDir: config.StagingDirPath(),
	}
}

func (c *Checker) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Checker) allowed() error {
	if !c.Build.CanAutoUpdate {
		return fmt.Errorf("%w (%s)", ErrNotAllowed, c.Build.Distribution)
	}
	if c.Build.Version == "" || c.Build.Version == "dev" {
		return ErrDevBuild
	}
	return nil
}

// loadState reads the persisted update state. A missing or unreadable file
// is an empty state.
func (c *Checker) loadState() UpdateState {
	var s UpdateState
	data, err := os.ReadFile(c.StatePath)
	if err != nil {
		return s
	}
	_ = json.Unmarshal(data, &s)
	return s
}

func (c *Checker) saveState(s UpdateState) {
	data, _ := json.Marshal(s)
	if err := os.MkdirAll(filepath.Dir(c.StatePath), 0755); err != nil {
		return
	}
	if err := config.WriteFileAtomic(c.StatePath, data, 0644); err != nil {
		log.Printf("[update] save state: %v", err)
	}
}

// ShouldCheck reports whether enough time has passed since the last check.
func ShouldCheck(s UpdateState, now time.Time) bool {
	if s.LastCheck == 0 {
		return true
	}
	return now.Sub(time.Unix(s.LastCheck, 0)) >= CheckInterval
}

// Latest queries the GitHub API for the latest release.
func (c *Checker) Latest(ctx context.Context) (*ReleaseInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(c.APIBase, "/"), c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("query releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	return &release, nil
}

func (c *Checker) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// Poll is the background check. It honours CheckInterval, reusing the cached
// result when fresh. With stage set, an available update is downloaded into
// StagingDir so it can be applied on next start.
func (c *Checker) Poll(ctx context.Context, stage bool) (Status, error) {
	st := Status{Current: c.Build.Version}
	if err := c.allowed(); err != nil {
		return st, err
	}

	now := c.clock()
	state := c.loadState()
	if !ShouldCheck(state, now) {
		st.Latest = state.LatestVersion
		st.ReleaseURL = state.ReleaseURL
		st.Available = CompareVersions(st.Current, state.LatestVersion)
		st.CheckedAt = time.Unix(state.LastCheck, 0)
		st.Staged = state.Staged
		st.Cached = true
		return st, nil
	}

	release, err := c.Latest(ctx)
	if err != nil {
		return st, err
	}
	st.Latest = release.TagName
	st.ReleaseURL = release.HTMLURL
	st.Available = CompareVersions(st.Current, release.TagName)
	st.CheckedAt = now

	state = UpdateState{
		LastCheck:     now.Unix(),
		LatestVersion: release.TagName,
		ReleaseURL:    release.HTMLURL,
	}
	if st.Available && stage {
		if err := os.MkdirAll(c.StagingDir, 0755); err != nil {
			return st, fmt.Errorf("create staging dir: %w", err)
		}
		path, err := c.Download(ctx, release, c.StagingDir)
		if err != nil {
			c.saveState(state)
			return st, err
		}
		st.Staged = path
		state.Staged = path
		log.Printf("[update] staged %s at %s", release.TagName, path)
	}
	c.saveState(state)
	return st, nil
}

// CompareVersions returns true if available is newer than current.
// Both are expected as semver strings like "v1.2.3" or "1.2.3".
func CompareVersions(current, available string) bool {
	cur := parseVersion(current)
	avail := parseVersion(available)
	if cur == nil || avail == nil {
		return false
	}
	for i := 0; i < 3; i++ {
		if avail[i] > cur[i] {
			return true
		}
		if avail[i] < cur[i] {
			return false
		}
	}
	return false
}

// parseVersion extracts [major, minor, patch] from a version string.
func parseVersion(v string) []int {
	v = strings.TrimPrefix(v, "v")
	parts := strings.SplitN(v, "-", 2) // strip pre-release suffix
	fields := strings.Split(parts[0], ".")
	if len(fields) != 3 {
		return nil
	}
	result := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil
		}
		result[i] = n
	}
	return result
}
