// Package presets manages local character presets (.chf files) stored per
// game channel, and imports presets from the community catalog.
package presets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"multitool/internal/config"
	"multitool/internal/gamepath"
)

const (
	Ext = ".chf"

	// Catalog downloads redirect through a CDN that rejects non-browser agents.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// maxPresetSize bounds a downloaded preset; larger bodies are rejected.
var maxPresetSize int64 = 8 << 20

var (
	ErrNotFound       = errors.New("preset not found")
	ErrNoInstallation = errors.New("no Star Citizen installation found")
	// ErrNotPreset rejects paths that are not a .chf file in a CustomCharacters folder.
	ErrNotPreset = errors.New("not a character preset")

	unsafeName = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// Preset is one local character file.
type Preset struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Characters is the get_character_informations payload.
type Characters struct {
	Characters []Preset `json:"characters"`
}

// Discoverer lists installations.
type Discoverer interface {
	Scan() (gamepath.VersionPaths, error)
}

// Manager operates on presets of every discovered installation.
type Manager struct {
	discover Discoverer
	http     *http.Client
}

// NewManager creates a Manager. A nil hc uses http.DefaultClient.
func NewManager(d Discoverer, hc *http.Client) *Manager {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Manager{discover: d, http: hc}
}

// Dir returns the preset folder of an installation root.
func Dir(installPath string) string {
	return filepath.Join(installPath, "user", "client", "0", "CustomCharacters")
}

// existingDir finds the preset folder regardless of its case, which varies
// between game versions.
func existingDir(installPath string) string {
	dir := Dir(installPath)
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	parent := filepath.Dir(dir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return dir
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), "CustomCharacters") {
			return filepath.Join(parent, e.Name())
		}
	}
	return dir
}

// List returns the presets of the installation at installPath.
func List(installPath string) (Characters, error) {
	dir := existingDir(installPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Characters{}, fmt.Errorf("read %s: %w", dir, err)
	}
	out := Characters{Characters: []Preset{}}
	version := gamepath.ChannelID(installPath)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Ext) {
			continue
		}
		out.Characters = append(out.Characters, Preset{
			Name:    strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:    filepath.Join(dir, e.Name()),
			Version: version,
		})
	}
	sort.Slice(out.Characters, func(i, j int) bool { return out.Characters[i].Name < out.Characters[j].Name })
	return out, nil
}

// Delete removes one preset file. Only .chf files directly inside a
// CustomCharacters folder are accepted.
func Delete(path string) error {
	if !isPresetPath(path) {
		return fmt.Errorf("%w: %s", ErrNotPreset, path)
	}
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a file", ErrNotFound, path)
	}
	return os.Remove(path)
}

func isPresetPath(path string) bool {
	clean := filepath.Clean(path)
	return strings.EqualFold(filepath.Ext(clean), Ext) &&
		strings.EqualFold(filepath.Base(filepath.Dir(clean)), "CustomCharacters")
}

// Duplicate copies a preset into the preset folder of every other
// discovered installation. It returns the written paths.
func (m *Manager) Duplicate(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	paths, err := m.discover.Scan()
	if err != nil {
		return nil, err
	}

	srcDir := filepath.Clean(filepath.Dir(path))
	var written []string
	for _, ch := range paths.Channels() {
		dest := existingDir(paths.Versions[ch].Path)
		if strings.EqualFold(filepath.Clean(dest), srcDir) {
			continue
		}
		if err := os.MkdirAll(dest, 0755); err != nil {
			return written, fmt.Errorf("create %s: %w", dest, err)
		}
		target := filepath.Join(dest, filepath.Base(path))
		if err := copyFile(path, target); err != nil {
			return written, fmt.Errorf("copy to %s: %w", dest, err)
		}
		written = append(written, target)
	}
	return written, nil
}

// SanitizeName replaces characters that are invalid in Windows file names.
func SanitizeName(title string) string {
	return unsafeName.ReplaceAllString(strings.TrimSpace(title), "_")
}

// Download fetches a preset from dnaURL into the first installation, named
// after title, then duplicates it to every other installation.
func (m *Manager) Download(ctx context.Context, dnaURL, title string) (string, error) {
	paths, err := m.discover.Scan()
	if err != nil {
		return "", err
	}
	channels := paths.Channels()
	if len(channels) == 0 {
		return "", ErrNoInstallation
	}
	dest := existingDir(paths.Versions[channels[0]].Path)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dnaURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	resp, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download preset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download preset: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPresetSize+1))
	if err != nil {
		return "", fmt.Errorf("read preset: %w", err)
	}
	if int64(len(data)) > maxPresetSize {
		return "", fmt.Errorf("download preset: too large (over %d bytes)", maxPresetSize)
	}

	file := filepath.Join(dest, SanitizeName(title)+Ext)
	if err := config.WriteFileAtomic(file, data, 0644); err != nil {
		return "", fmt.Errorf("write preset: %w", err)
	}
	log.Printf("[presets] downloaded %q to %s (%d bytes)", title, file, len(data))

	if _, err := m.Duplicate(file); err != nil {
		return file, err
	}
	return file, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
