package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"multitool/internal/config"
	"multitool/internal/httpserver"
	"multitool/internal/output"
	"multitool/internal/service"
)

// errNoDaemon is returned by commands that act on the live scheduler when no
// `multitool serve` process answers.
var errNoDaemon = errors.New("no background process is running; start one with `multitool serve`")

// LocalOnly skips the running server and executes commands in-process.
var LocalOnly bool

// RemoteError is a command failure reported by a running server.
type RemoteError struct {
	Status  int
	Kind    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// ErrorKind is the error class reported by the server.
func (e *RemoteError) ErrorKind() string { return e.Kind }

// localError gives in-process failures the same kind a server would report.
type localError struct{ error }

func (e localError) Unwrap() error { return e.error }

func (e localError) ErrorKind() string {
	_, kind := httpserver.Classify(e.error)
	return kind
}

// client routes a command to a running `multitool serve` when one answers on
// the configured address, or to an in-process Service otherwise.
type client struct {
	base  string
	token string
	hc    *http.Client

	local *service.Service
}

func baseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

func newClient(settings config.Settings) *client {
	c := &client{
		base: baseURL(settings.HTTP.Addr),
		hc:   &http.Client{Timeout: 10 * time.Minute},
	}
	if len(settings.HTTP.Tokens) > 0 {
		c.token = settings.HTTP.Tokens[0]
	}
	if LocalOnly || !c.reachable() {
		c.base = ""
		c.local = service.New(service.Options{Settings: &settings})
	}
	return c
}

// openClient loads settings and connects, exiting on failure.
func openClient() *client {
	settings, err := service.LoadSettings()
	if err != nil {
		output.PrintError(err)
	}
	return newClient(settings)
}

func (c *client) reachable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Remote reports whether commands go to a running server.
func (c *client) Remote() bool { return c.local == nil }

// Close stops the in-process scheduler, if any.
func (c *client) Close() {
	if c.local != nil {
		c.local.Close()
	}
}

// call runs name with args and decodes the result into out (may be nil).
func (c *client) call(ctx context.Context, name string, args, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if args == nil {
		raw = nil
	}

	var result []byte
	if c.local != nil {
		v, err := c.local.Invoke(ctx, name, raw)
		if err != nil {
			return localError{err}
		}
		if result, err = json.Marshal(v); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else if result, err = c.post(ctx, name, raw); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", name, err)
	}
	return nil
}

func (c *client) post(ctx context.Context, name string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/invoke/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return nil, &RemoteError{Status: resp.StatusCode, Kind: e.Kind, Message: e.Error}
	}

	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return env.Result, nil
}

// invoke is the Run-side helper: it calls the command and exits on error.
func invoke(name string, args, out any) {
	c := openClient()
	defer c.Close()
	if err := c.call(cmdContext(), name, args, out); err != nil {
		c.Close()
		output.PrintError(err)
	}
}

// cmdContext is the context of one CLI command.
func cmdContext() context.Context { return context.Background() }
