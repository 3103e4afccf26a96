package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"multitool/internal/buildinfo"
	"multitool/internal/config"
	"multitool/internal/httpserver"
	mcpserver "multitool/internal/mcp"
	"multitool/internal/service"
	"multitool/internal/ui"
)

// ServeOptions are the flags of `multitool serve`.
type ServeOptions struct {
	Addr      string
	NoHTTP    bool
	Minimized bool
}

// RunServe is the long-running background process: it applies a staged
// update, starts the scheduler when enabled, and serves the command surface
// over HTTP and, when stdin is a pipe, over stdio MCP.
func RunServe(opts ServeOptions) {
	stdioMCP := isStdinPipe()

	// stdout belongs to the JSON-RPC stream in stdio mode.
	var out io.Writer = os.Stdout
	if stdioMCP {
		out = os.Stderr
		log.SetOutput(os.Stderr)
	}

	settings, err := service.LoadSettings()
	if err != nil {
		ui.ShowError("Failed to load settings", err)
		os.Exit(1)
	}
	addr := settings.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	if !opts.NoHTTP && !isLoopback(addr) && len(settings.HTTP.Tokens) == 0 {
		token, err := generateToken()
		if err != nil {
			ui.ShowError("Failed to generate token", err)
			os.Exit(1)
		}
		settings.HTTP.Tokens = []string{token}
		if err := config.SaveSettings(config.SettingsPath(), settings); err != nil {
			log.Printf("[service] could not save generated token: %v", err)
		}
		fmt.Fprintf(out, "Generated token: %s\n", token)
		fmt.Fprintf(out, "(saved to %s; send it as a Bearer token)\n", config.SettingsPath())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// restart_as_admin hands over to the elevated copy by shutting this one down.
	svc := service.New(service.Options{Settings: &settings, OnRestart: cancel})
	defer svc.Close()
	if applied := svc.Boot(); applied != "" {
		fmt.Fprintf(out, "Applied staged update %s; restart to run it\n", applied)
	}
	if opts.Minimized {
		log.Printf("[service] started minimized")
	}
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if !opts.NoHTTP {
		httpServer := httpserver.NewHTTPServer(svc, httpserver.Options{
			Tokens:   settings.HTTP.Tokens,
			Version:  buildinfo.Version,
			Commands: service.Names(),
			Events:   http.HandlerFunc(svc.Hub().ServeWS),
			Metrics:  svc.Metrics().Handler(),
			MCP:      mcpserver.NewSSEHandler(ctx, svc, svc.Hub(), buildinfo.Version),
		})
		fmt.Fprintf(out, "HTTP server listening on %s\n", addr)
		go func() {
			if err := listen(ctx, httpServer, addr, opts.Minimized); err != nil {
				log.Printf("[HTTP] %v", err)
				cancel()
			}
		}()
		go func() {
			<-ctx.Done()
			shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			_ = httpServer.Shutdown(shutCtx)
		}()
	}

	if stdioMCP {
		err := mcpserver.RunServer(ctx, svc, svc.Hub(), buildinfo.Version)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			log.Printf("[mcp] %v", err)
		}
		return
	}
	<-ctx.Done()
	fmt.Fprintf(out, "\nShutting down...\n")
}

const listenAttempts = 10

var listenBackoff = time.Second

// listen serves addr. A minimized start retries binding for a while: it
// follows a login or an elevated relaunch, and the previous instance may
// still hold the port.
func listen(ctx context.Context, srv *httpserver.HTTPServer, addr string, retry bool) error {
	attempts := 1
	if retry {
		attempts = listenAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = srv.ListenAndServe(addr); err == nil {
			return nil
		}
		if i+1 == attempts {
			break
		}
		log.Printf("[HTTP] %v; retrying in %s", err, listenBackoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(listenBackoff):
		}
	}
	return err
}

// isStdinPipe reports whether stdin is a pipe or file rather than a
// terminal, i.e. multitool was spawned by an MCP client.
func isStdinPipe() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// generateToken returns a random 32-character hex token.
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
