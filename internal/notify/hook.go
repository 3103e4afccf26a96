package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// HookPayload is the JSON document a hook script reads on stdin.
type HookPayload struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HookRunner runs a user script for every notification.
type HookRunner struct {
	ScriptPath string
	Timeout    time.Duration
}

// NewHookRunner creates a HookRunner with a 30-second timeout.
func NewHookRunner(scriptPath string) *HookRunner {
	return &HookRunner{ScriptPath: scriptPath, Timeout: 30 * time.Second}
}

// Send runs the script with the notification as JSON on stdin.
func (h *HookRunner) Send(n Notification) error {
	return h.Execute(HookPayload{
		Title:     n.Title,
		Message:   n.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Name returns the name of this notifier.
func (h *HookRunner) Name() string { return "hook" }

// Execute runs the hook script with payload on stdin.
func (h *HookRunner) Execute(payload HookPayload) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("hook marshal payload: %w", err)
	}
	cmd := exec.CommandContext(ctx, h.ScriptPath)
	cmd.Stdin = bytes.NewReader(data)
	// Children of the script may hold the output pipe open after it is killed.
	cmd.WaitDelay = time.Second

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("hook timed out after %s: %s", h.Timeout, h.ScriptPath)
	}
	if err != nil {
		return fmt.Errorf("hook execution failed: %w (output: %s)", err, output)
	}
	return nil
}
