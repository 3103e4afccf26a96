// Package translation installs, updates and removes community translation
// packs inside a game installation.
//
// Layout inside an installation root:
//
//	user.cfg                                   g_language = <folder>
//	data/Localization/<folder>/global.ini      UTF-8 with BOM
package translation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"multitool/internal/config"
)

// maxPackSize bounds a downloaded pack; larger bodies are rejected, not cut.
var maxPackSize int64 = 64 << 20

// Engine performs the install/update/uninstall actions and the read-only probes.
type Engine struct {
	client    *http.Client
	userAgent string
	protected []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient sets the client used to download packs.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithUserAgent sets the User-Agent header for downloads.
func WithUserAgent(ua string) Option {
	return func(e *Engine) { e.userAgent = ua }
}

// WithProtectedPaths adds path prefixes treated like Program Files.
func WithProtectedPaths(prefixes ...string) Option {
	return func(e *Engine) { e.protected = append(e.protected, prefixes...) }
}

// NewEngine returns an Engine with a 60s download timeout unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		client:    &http.Client{Timeout: 60 * time.Second},
		userAgent: "MultitoolV2",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Paths of the files owned by a translation.
type layout struct {
	root      string
	folder    string
	userCfg   string
	data      string
	locale    string
	globalIni string
}

func resolve(path, lang string) (layout, error) {
	folder, ok := config.LanguageFolder(lang)
	if !ok {
		return layout{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	data := filepath.Join(path, "data")
	locale := filepath.Join(data, "Localization")
	return layout{
		root:      path,
		folder:    folder,
		userCfg:   filepath.Join(path, "user.cfg"),
		data:      data,
		locale:    locale,
		globalIni: filepath.Join(locale, folder, "global.ini"),
	}, nil
}

// Writable returns ErrAccessDenied when path lies under a protected prefix.
// Nothing is touched on disk.
func (e *Engine) Writable(path string) error {
	return e.checkProtected(path)
}

func (e *Engine) checkProtected(path string) error {
	if IsProtectedPath(path, e.protected) {
		return fmt.Errorf("%s: %w", path, ErrAccessDenied)
	}
	return nil
}

// IsTranslated reports whether user.cfg selects lang and its global.ini exists.
func (e *Engine) IsTranslated(path, lang string) bool {
	l, err := resolve(path, lang)
	if err != nil {
		return false
	}
	cfg, err := os.ReadFile(l.userCfg)
	if err != nil || !hasLanguage(string(cfg), l.folder) {
		return false
	}
	info, err := os.Stat(l.globalIni)
	return err == nil && info.Mode().IsRegular()
}

// IsUpToDate compares the installed global.ini with the pack at ref.
// A missing global.ini is simply not up to date. Nothing on disk is modified.
func (e *Engine) IsUpToDate(ctx context.Context, path, ref, lang string) (bool, error) {
	l, err := resolve(path, lang)
	if err != nil {
		return false, err
	}
	local, err := os.ReadFile(l.globalIni)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, mapFSError(err)
	}
	remote, err := e.fetch(ctx, ref)
	if err != nil {
		return false, err
	}
	return sameContent(local, remote), nil
}

// Install writes the pack at ref into path. It refuses protected paths before
// touching anything and returns ErrAlreadyInstalled when the same pack is
// already in place.
func (e *Engine) Install(ctx context.Context, path, ref, lang string) error {
	l, err := resolve(path, lang)
	if err != nil {
		return err
	}
	if err := e.checkProtected(path); err != nil {
		return err
	}
	if info, err := os.Stat(path); err != nil {
		return fmt.Errorf("installation path: %w", mapFSError(err))
	} else if !info.IsDir() {
		return fmt.Errorf("installation path %s is not a directory", path)
	}

	remote, err := e.fetch(ctx, ref)
	if err != nil {
		return err
	}
	if e.IsTranslated(path, lang) {
		if local, err := os.ReadFile(l.globalIni); err == nil && sameContent(local, remote) {
			return ErrAlreadyInstalled
		}
	}
	if err := e.write(l, remote); err != nil {
		return err
	}
	log.Printf("[translation] installed %s into %s", l.folder, path)
	return nil
}

// Update replaces an installed pack with the one at ref.
func (e *Engine) Update(ctx context.Context, path, ref, lang string) error {
	l, err := resolve(path, lang)
	if err != nil {
		return err
	}
	if err := e.checkProtected(path); err != nil {
		return err
	}
	if _, err := os.Stat(l.globalIni); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrNotInstalled)
	} else if err != nil {
		return mapFSError(err)
	}

	remote, err := e.fetch(ctx, ref)
	if err != nil {
		return err
	}
	if err := e.write(l, remote); err != nil {
		return err
	}
	log.Printf("[translation] updated %s in %s", l.folder, path)
	return nil
}

// Uninstall removes every translation from path. Nothing installed is success.
func (e *Engine) Uninstall(path string) error {
	locale := filepath.Join(path, "data", "Localization")
	userCfg := filepath.Join(path, "user.cfg")

	_, statErr := os.Stat(locale)
	hasLocale := statErr == nil
	cfg, cfgErr := os.ReadFile(userCfg)
	hasCfg := cfgErr == nil && hasAnyLanguage(string(cfg))
	if !hasLocale && !hasCfg {
		return nil
	}
	if err := e.checkProtected(path); err != nil {
		return err
	}

	if hasLocale {
		if err := os.RemoveAll(locale); err != nil {
			return mapFSError(err)
		}
		// data/ is ours only when nothing else lives in it.
		data := filepath.Dir(locale)
		if entries, err := os.ReadDir(data); err == nil && len(entries) == 0 {
			if err := os.Remove(data); err != nil {
				return mapFSError(err)
			}
		}
	}
	if hasCfg {
		rest := stripLanguage(string(cfg))
		if rest == "" {
			if err := os.Remove(userCfg); err != nil {
				return mapFSError(err)
			}
		} else if err := config.WriteFileAtomic(userCfg, []byte(rest), 0644); err != nil {
			return mapFSError(err)
		}
	}
	log.Printf("[translation] uninstalled from %s", path)
	return nil
}

func (e *Engine) write(l layout, content []byte) error {
	encoded := withBOM(content)
	if err := os.MkdirAll(filepath.Dir(l.globalIni), 0755); err != nil {
		return mapFSError(err)
	}
	if err := config.WriteFileAtomic(l.globalIni, encoded, 0644); err != nil {
		return mapFSError(err)
	}

	var existing string
	if b, err := os.ReadFile(l.userCfg); err == nil {
		existing = string(b)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return mapFSError(err)
	}
	merged := mergeLanguage(existing, l.folder)
	if merged == existing {
		return nil
	}
	if err := config.WriteFileAtomic(l.userCfg, []byte(merged), 0644); err != nil {
		return mapFSError(err)
	}
	return nil
}

func (e *Engine) fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bad link %q: %w", ErrNetwork, ref, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrProbeTimeout, ref)
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrNetwork, ref, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPackSize+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrProbeTimeout, ref)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrNetwork, ref, err)
	}
	if int64(len(body)) > maxPackSize {
		return nil, fmt.Errorf("%w: %s: pack too large (over %d bytes)", ErrNetwork, ref, maxPackSize)
	}
	return body, nil
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return err
}
