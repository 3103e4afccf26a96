// Package buildinfo decides how this copy of the application was distributed
// and which capabilities follow from that. Every other package asks here
// instead of inspecting the environment itself.
package buildinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Distribution is the channel the running binary was installed from.
type Distribution string

const (
	GitHub         Distribution = "github"
	Portable       Distribution = "portable"
	MicrosoftStore Distribution = "microsoft-store"
	Unknown        Distribution = "unknown"
)

const (
	EnvMSStore      = "MULTITOOL_ENV_MS_STORE"
	EnvPortable     = "MULTITOOL_ENV_PORTABLE"
	EnvDistribution = "MULTITOOL_ENV_DISTRIBUTION"

	// PortableMarker is a file placed next to the executable by the portable archive.
	PortableMarker = "portable"

	DefaultRepo = "Onivoid/MultitoolV2"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	BuildDate = ""
	BuildHash = ""
)

// CanAutoUpdate reports whether the application may replace itself.
func (d Distribution) CanAutoUpdate() bool {
	return d == GitHub || d == Portable
}

// IsSigned reports whether the binary carries a trusted signature.
func (d Distribution) IsSigned() bool {
	return d == MicrosoftStore
}

// Env is everything Detect looks at. Tests build it by hand.
type Env struct {
	Getenv         func(string) string
	ExecutablePath string
	// PortableMarker reports whether the marker file exists next to the executable.
	PortableMarker bool
}

// Info is the derived build description returned by get_build_info.
type Info struct {
	Distribution  Distribution `json:"distribution"`
	Version       string       `json:"version"`
	BuildDate     string       `json:"buildDate,omitempty"`
	BuildHash     string       `json:"buildHash,omitempty"`
	IsSigned      bool         `json:"isSigned"`
	IsPortable    bool         `json:"isPortable"`
	CanAutoUpdate bool         `json:"canAutoUpdate"`
	GitHubRepo    string       `json:"githubRepo"`
}

// Detect derives Info from env. It performs no I/O.
func Detect(env Env) Info {
	getenv := env.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	d := detectDistribution(getenv, env)
	return Info{
		Distribution:  d,
		Version:       Version,
		BuildDate:     BuildDate,
		BuildHash:     BuildHash,
		IsSigned:      d.IsSigned(),
		IsPortable:    d == Portable,
		CanAutoUpdate: d.CanAutoUpdate(),
		GitHubRepo:    DefaultRepo,
	}
}

func detectDistribution(getenv func(string) string, env Env) Distribution {
	if isTrue(getenv(EnvMSStore)) {
		return MicrosoftStore
	}
	if isTrue(getenv(EnvPortable)) {
		return Portable
	}
	if v := strings.ToLower(strings.TrimSpace(getenv(EnvDistribution))); v != "" {
		switch Distribution(v) {
		case GitHub, Portable, MicrosoftStore:
			return Distribution(v)
		case "store", "msstore":
			return MicrosoftStore
		}
	}
	if env.ExecutablePath == "" {
		return Unknown
	}
	if strings.Contains(strings.ToLower(env.ExecutablePath), "windowsapps") {
		return MicrosoftStore
	}
	if env.PortableMarker {
		return Portable
	}
	return GitHub
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ProcessEnv gathers Env from the running process.
func ProcessEnv() Env {
	env := Env{Getenv: os.Getenv}
	exe, err := os.Executable()
	if err != nil {
		return env
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	env.ExecutablePath = exe
	if _, err := os.Stat(filepath.Join(filepath.Dir(exe), PortableMarker)); err == nil {
		env.PortableMarker = true
	}
	return env
}

var (
	currentOnce sync.Once
	current     Info
)

// Current returns the Info of the running process, computed once.
func Current() Info {
	currentOnce.Do(func() {
		current = Detect(ProcessEnv())
	})
	return current
}

// SecurityInfo is what the UI shows about download trust.
type SecurityInfo struct {
	ExpectsSmartScreenWarning     bool   `json:"expectsSmartScreenWarning"`
	AllowAutoUpdates              bool   `json:"allowAutoUpdates"`
	DownloadSourceURL             string `json:"downloadSourceUrl"`
	ChecksumVerificationAvailable bool   `json:"checksumVerificationAvailable"`
}

// Security derives SecurityInfo from i.
func (i Info) Security() SecurityInfo {
	return SecurityInfo{
		ExpectsSmartScreenWarning:     !i.IsSigned,
		AllowAutoUpdates:              i.CanAutoUpdate,
		DownloadSourceURL:             i.DownloadURL(),
		ChecksumVerificationAvailable: i.Distribution == GitHub || i.Distribution == Portable,
	}
}

// DownloadURL returns where users should get this distribution from.
func (i Info) DownloadURL() string {
	repo := i.GitHubRepo
	if repo == "" {
		repo = DefaultRepo
	}
	if i.Distribution == MicrosoftStore {
		return "ms-windows-store://search/?query=MultitoolV2"
	}
	return fmt.Sprintf("https://github.com/%s/releases/latest", repo)
}

// Warning returns a message for builds that will trigger an OS trust prompt,
// or "" when there is nothing to say.
func (i Info) Warning() string {
	switch i.Distribution {
	case GitHub, Portable:
		return "This build is not signed; Windows SmartScreen may warn on first launch. Verify the SHA-256 checksum published with the release."
	case Unknown:
		return "Unknown distribution; automatic updates are disabled."
	}
	return ""
}
