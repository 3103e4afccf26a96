package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"multitool/internal/autostart"
	"multitool/internal/cache"
	"multitool/internal/config"
	"multitool/internal/gateway"
	"multitool/internal/presets"
	"multitool/internal/scheduler"
	"multitool/internal/service"
	"multitool/internal/translation"
	"multitool/internal/update"
)

// handleHealth handles GET /health
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
	})
}

// handleCommands handles GET /commands
func (s *HTTPServer) handleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, CommandsResponse{Commands: s.commands})
}

// handleInvoke handles POST /invoke/{command}. The body is the command's
// argument object and may be empty.
func (s *HTTPServer) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/invoke/"), "/")
	if name == "" || strings.Contains(name, "/") {
		respondError(w, http.StatusBadRequest, "invalid path, expected /invoke/{command}")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := s.invoker.Invoke(r.Context(), name, body)
	if err != nil {
		status, kind := Classify(err)
		respondJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
		return
	}
	respondJSON(w, http.StatusOK, InvokeResponse{Command: name, Result: result})
}

type errorClass struct {
	target error
	status int
	kind   string
}

// Checked in order; the first match wins.
var errorClasses = []errorClass{
	{service.ErrUnknownCommand, http.StatusNotFound, "unknown_command"},
	{service.ErrInvalidArgs, http.StatusBadRequest, "invalid_arguments"},
	{config.ErrInvalidConfig, http.StatusUnprocessableEntity, "invalid_config"},
	{config.ErrConfigCorrupt, http.StatusUnprocessableEntity, "config_corrupt"},
	{config.ErrPersistence, http.StatusInternalServerError, "persistence"},
	{translation.ErrUnsupportedLanguage, http.StatusUnprocessableEntity, "unsupported_language"},
	{translation.ErrAccessDenied, http.StatusForbidden, "access_denied"},
	{cache.ErrOutsideCache, http.StatusForbidden, "outside_cache"},
	{translation.ErrAlreadyInstalled, http.StatusConflict, "already_installed"},
	{scheduler.ErrDisabled, http.StatusConflict, "service_disabled"},
	{translation.ErrNotInstalled, http.StatusNotFound, "not_installed"},
	{presets.ErrNotFound, http.StatusNotFound, "not_found"},
	{presets.ErrNoInstallation, http.StatusNotFound, "no_installation"},
	{presets.ErrNotPreset, http.StatusForbidden, "not_preset"},
	{translation.ErrProbeTimeout, http.StatusGatewayTimeout, "timeout"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	{translation.ErrNetwork, http.StatusBadGateway, "network"},
	{gateway.ErrNetwork, http.StatusBadGateway, "network"},
	{update.ErrChecksum, http.StatusBadGateway, "checksum"},
	{autostart.ErrPlatformQuery, http.StatusNotImplemented, "unsupported"},
	{update.ErrNotAllowed, http.StatusNotImplemented, "unsupported"},
	{update.ErrDevBuild, http.StatusNotImplemented, "unsupported"},
}

// Classify maps a command error to its HTTP status and a stable kind string.
func Classify(err error) (int, string) {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.status, c.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}
