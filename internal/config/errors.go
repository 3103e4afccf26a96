package config

import "errors"

var (
	// ErrConfigCorrupt reports stored bytes that do not decode into a valid record.
	// Callers fall back to Defaults().
	ErrConfigCorrupt = errors.New("config corrupt")

	// ErrPersistence reports an I/O failure while writing a record. The previous
	// file is left untouched.
	ErrPersistence = errors.New("persistence error")

	// ErrInvalidConfig reports a record rejected by Validate before it is written.
	ErrInvalidConfig = errors.New("invalid config")
)
