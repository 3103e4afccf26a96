// Package gamepath discovers game installations from the RSI launcher log.
package gamepath

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// UnknownChannel is returned by ChannelID for paths without a channel component.
const UnknownChannel = "UNKNOWN"

// Install paths appear in the log JSON-escaped (C:\\Games\\...) or plain, with
// either separator. Segments exclude ':' so a timestamp cannot prefix a path.
var (
	installRe = regexp.MustCompile(`(?:[A-Za-z]:)?(?:[\\/]{1,2}[^\\/:"'\r\n]+)*?[\\/]{1,2}StarCitizen[\\/]{1,2}[A-Za-z0-9_.@-]+`)
	channelRe = regexp.MustCompile(`StarCitizen[\\/]+([A-Za-z0-9_.@-]+)[\\/]*$`)
)

// VersionInfo is one discovered channel. Translated and UpToDate are filled
// by the caller on every query and never persisted.
type VersionInfo struct {
	Path       string `json:"path"`
	Translated bool   `json:"translated"`
	UpToDate   bool   `json:"up_to_date"`
}

// VersionPaths maps a channel (LIVE, PTU, ...) to its installation.
type VersionPaths struct {
	Versions map[string]VersionInfo `json:"versions"`
}

// Channels returns the discovered channels in sorted order.
func (v VersionPaths) Channels() []string {
	out := make([]string, 0, len(v.Versions))
	for ch := range v.Versions {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Scanner finds installations.
type Scanner struct {
	// LogPath is the launcher log; empty or missing means no log-derived paths.
	LogPath string
	// ExtraPaths are installation roots configured by hand.
	ExtraPaths []string
	// CheckExists keeps only roots containing Bin64/StarCitizen.exe and Data.p4k.
	CheckExists bool
}

// Scan returns every channel found, newest log line first, then ExtraPaths.
// The first root seen for a channel wins.
func (s *Scanner) Scan() (VersionPaths, error) {
	out := VersionPaths{Versions: map[string]VersionInfo{}}

	var candidates []string
	if s.LogPath != "" {
		lines, err := readLines(s.LogPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return out, fmt.Errorf("read launcher log: %w", err)
		}
		for i := len(lines) - 1; i >= 0; i-- {
			candidates = append(candidates, InstallPaths(lines[i])...)
		}
	}
	candidates = append(candidates, s.ExtraPaths...)

	seen := map[string]bool{}
	for _, c := range candidates {
		root := normalize(c)
		if root == "" || seen[strings.ToLower(root)] {
			continue
		}
		seen[strings.ToLower(root)] = true
		if s.CheckExists && !isInstallRoot(root) {
			continue
		}
		ch := ChannelID(root)
		if ch == UnknownChannel {
			continue
		}
		if _, dup := out.Versions[ch]; dup {
			continue
		}
		out.Versions[ch] = VersionInfo{Path: root}
	}
	return out, nil
}

// InstallPaths extracts candidate installation roots from one log line.
func InstallPaths(line string) []string {
	return installRe.FindAllString(line, -1)
}

// ChannelID returns the path element after StarCitizen, or UnknownChannel.
func ChannelID(root string) string {
	m := channelRe.FindStringSubmatch(root)
	if m == nil {
		return UnknownChannel
	}
	return m[1]
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\\`, `\`)
	p = strings.ReplaceAll(p, `//`, `/`)
	return strings.TrimRight(p, `\/`)
}

func isInstallRoot(root string) bool {
	exe := filepath.Join(root, "Bin64", "StarCitizen.exe")
	p4k := filepath.Join(root, "Data.p4k")
	if _, err := os.Stat(exe); err != nil {
		return false
	}
	_, err := os.Stat(p4k)
	return err == nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
