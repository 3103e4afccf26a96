// Package update checks GitHub releases for a newer build of the application
// and stages or applies it. Only distributions that can replace themselves
// (github, portable) are allowed through.
package update

import (
	"errors"
	"time"
)

// CheckInterval is the minimum duration between two release queries made by
// background polls. Manual checks ignore it.
const CheckInterval = 6 * time.Hour

var (
	// ErrNotAllowed is returned for distributions that must not self-update.
	ErrNotAllowed = errors.New("self-update is disabled for this distribution")
	// ErrDevBuild is returned when the running binary has no release version.
	ErrDevBuild = errors.New("development build, skipping update check")
	// ErrChecksum is returned when a downloaded binary does not match its published digest.
	ErrChecksum = errors.New("checksum mismatch")
)

// Asset is one file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// ReleaseInfo holds metadata about a GitHub release.
type ReleaseInfo struct {
	TagName     string  `json:"tag_name"`
	HTMLURL     string  `json:"html_url"`
	PublishedAt string  `json:"published_at"`
	Assets      []Asset `json:"assets"`
}

// UpdateState persists the last check timestamp and latest known version.
// Stored next to the service config, separate from it to avoid write races.
type UpdateState struct {
	LastCheck     int64  `json:"last_check"`
	LatestVersion string `json:"latest_version"`
	ReleaseURL    string `json:"release_url,omitempty"`
	Staged        string `json:"staged,omitempty"`
}

// Status is the outcome of a check, reported in poll cycles.
type Status struct {
	Current    string    `json:"current"`
	Latest     string    `json:"latest,omitempty"`
	Available  bool      `json:"available"`
	ReleaseURL string    `json:"releaseUrl,omitempty"`
	Staged     string    `json:"staged,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
	Cached     bool      `json:"cached"`
}
