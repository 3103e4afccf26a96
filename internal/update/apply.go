package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const maxChecksumSize = 4 << 10

// platformBinaryName returns the expected release asset name for the current platform.
func platformBinaryName() string {
	name := fmt.Sprintf("multitool-%s-%s", runtime.GOOS, runtime.GOARCH)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name
}

func findAsset(release *ReleaseInfo, name string) (Asset, bool) {
	for _, a := range release.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// downloadURL returns the asset URL for this platform, falling back to the
// conventional release download path when the release lists no assets.
func (c *Checker) downloadURL(release *ReleaseInfo) string {
	if a, ok := findAsset(release, platformBinaryName()); ok {
		return a.DownloadURL
	}
	return fmt.Sprintf(
		"https://github.com/%s/releases/download/%s/%s",
		c.Repo, release.TagName, platformBinaryName(),
	)
}

func (c *Checker) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download returned HTTP %d", resp.StatusCode)
	}
	return resp, nil
}

// expectedDigest fetches "<asset>.sha256" when the release publishes one.
// The file holds the hex digest, optionally followed by the file name.
func (c *Checker) expectedDigest(ctx context.Context, release *ReleaseInfo) (string, error) {
	a, ok := findAsset(release, platformBinaryName()+".sha256")
	if !ok {
		return "", nil
	}
	resp, err := c.get(ctx, a.DownloadURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxChecksumSize))
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty checksum file", ErrChecksum)
	}
	return strings.ToLower(fields[0]), nil
}

// Download fetches the binary for the given release into destDir and
// verifies it against the published SHA-256 when one exists.
// Returns the path of the downloaded file.
func (c *Checker) Download(ctx context.Context, release *ReleaseInfo, destDir string) (string, error) {
	want, err := c.expectedDigest(ctx, release)
	if err != nil {
		return "", err
	}

	resp, err := c.get(ctx, c.downloadURL(release))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	destPath := filepath.Join(destDir, platformBinaryName())
	f, err := os.CreateTemp(destDir, "multitool-update-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write failed: %w", err)
	}
	f.Close()

	if got := hex.EncodeToString(h.Sum(nil)); want != "" && got != want {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: got %s, want %s", ErrChecksum, got, want)
	}

	if err := os.Chmod(tmpPath, 0755); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	return destPath, nil
}

// ReplaceSelf replaces the currently running binary with newBinaryPath.
func ReplaceSelf(newBinaryPath string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot determine executable path: %w", err)
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return fmt.Errorf("cannot resolve symlinks: %w", err)
	}
	return replaceFile(self, newBinaryPath)
}

func replaceFile(self, newBinaryPath string) error {
	if runtime.GOOS == "windows" {
		// A running binary can't be overwritten; move it aside first.
		oldPath := self + ".old"
		_ = os.Remove(oldPath)
		if err := os.Rename(self, oldPath); err != nil {
			return fmt.Errorf("cannot rename current binary: %w (try running as admin)", err)
		}
		if err := copyFile(newBinaryPath, self); err != nil {
			_ = os.Rename(oldPath, self)
			return fmt.Errorf("cannot write new binary: %w", err)
		}
		_ = os.Remove(oldPath)
		return nil
	}
	if err := os.Rename(newBinaryPath, self); err != nil {
		// cross-device
		if err := copyFile(newBinaryPath, self); err != nil {
			return fmt.Errorf("cannot replace binary: %w", err)
		}
		os.Remove(newBinaryPath)
	}
	return nil
}

// ApplyStaged installs a binary staged by a previous Poll. It returns the
// applied version, or "" when nothing newer was staged.
func (c *Checker) ApplyStaged() (string, error) {
	if err := c.allowed(); err != nil {
		return "", nil
	}
	staged := filepath.Join(c.StagingDir, platformBinaryName())
	if _, err := os.Stat(staged); os.IsNotExist(err) {
		return "", nil
	}

	state := c.loadState()
	if !CompareVersions(c.Build.Version, state.LatestVersion) {
		// Stale: the running build already caught up.
		_ = os.RemoveAll(c.StagingDir)
		return "", nil
	}

	if err := ReplaceSelf(staged); err != nil {
		return "", err
	}

	_ = os.RemoveAll(c.StagingDir)
	state.Staged = ""
	c.saveState(state)
	log.Printf("[update] applied staged %s", state.LatestVersion)
	return state.LatestVersion, nil
}

// RunSelfUpdate performs a manual self-update: check, download, replace.
func (c *Checker) RunSelfUpdate(ctx context.Context) (Status, error) {
	st := Status{Current: c.Build.Version}
	if err := c.allowed(); err != nil {
		return st, err
	}

	release, err := c.Latest(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to check for updates: %w", err)
	}
	now := c.clock()
	st.Latest = release.TagName
	st.ReleaseURL = release.HTMLURL
	st.CheckedAt = now
	state := UpdateState{LastCheck: now.Unix(), LatestVersion: release.TagName, ReleaseURL: release.HTMLURL}

	if !CompareVersions(c.Build.Version, release.TagName) {
		c.saveState(state)
		return st, nil
	}
	st.Available = true

	tmpDir, err := os.MkdirTemp("", "multitool-update-*")
	if err != nil {
		return st, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	path, err := c.Download(ctx, release, tmpDir)
	if err != nil {
		return st, err
	}
	if err := ReplaceSelf(path); err != nil {
		return st, err
	}
	st.Available = false
	st.Current = release.TagName
	c.saveState(state)
	return st, nil
}

// copyFile copies src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

