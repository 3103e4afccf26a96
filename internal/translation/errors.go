package translation

import "errors"

var (
	// ErrAccessDenied is never retried: only elevation or moving the game fixes it.
	ErrAccessDenied = errors.New("access denied: the game is installed in a protected folder; run Multitool as administrator or move the installation outside Program Files")

	ErrAlreadyInstalled    = errors.New("translation already installed and up to date")
	ErrNotInstalled        = errors.New("translation not installed")
	ErrNetwork             = errors.New("network error")
	ErrProbeTimeout        = errors.New("probe timed out")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
