package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"
)

// Invoker runs one named command; *service.Service satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// Options configures an HTTPServer.
type Options struct {
	Tokens   []string
	Version  string
	Commands []string
	// Events streams scheduler events; nil disables /events.
	Events http.Handler
	// Metrics serves the Prometheus registry; nil disables /metrics.
	Metrics http.Handler
	// MCP serves the MCP SSE transport under /mcp/; nil disables it.
	MCP http.Handler
}

// HTTPServer is the remote-invocation boundary of the background service.
type HTTPServer struct {
	mux      *http.ServeMux
	tokens   []string
	version  string
	commands []string
	invoker  Invoker
	events   http.Handler
	metrics  http.Handler
	mcp      http.Handler

	mu  sync.Mutex
	srv *http.Server
}

// NewHTTPServer creates a new HTTP server instance
func NewHTTPServer(invoker Invoker, opts Options) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		tokens:   opts.Tokens,
		version:  opts.Version,
		commands: opts.Commands,
		invoker:  invoker,
		events:   opts.Events,
		metrics:  opts.Metrics,
		mcp:      opts.MCP,
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes with middleware
func (s *HTTPServer) registerRoutes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", loggingMiddleware(s.handleHealth))

	s.mux.HandleFunc("/commands", loggingMiddleware(s.authMiddleware(s.handleCommands)))
	s.mux.HandleFunc("/invoke/", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(recoverMiddleware(s.handleInvoke)))))
	if s.events != nil {
		s.mux.HandleFunc("/events", loggingMiddleware(s.authMiddleware(s.events.ServeHTTP)))
	}
	if s.metrics != nil {
		s.mux.HandleFunc("/metrics", s.authMiddleware(s.metrics.ServeHTTP))
	}
	if s.mcp != nil {
		s.mux.HandleFunc("/mcp/", s.authMiddleware(s.mcp.ServeHTTP))
	}
}

// Handler exposes the routed mux.
func (s *HTTPServer) Handler() http.Handler { return s.mux }

// ListenAndServe starts the HTTP server on the given address and blocks until
// Shutdown is called or the listener fails.
func (s *HTTPServer) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	log.Printf("[HTTP] Starting server on %s", addr)
	if len(s.tokens) == 0 {
		log.Printf("[HTTP] No tokens configured; requests are not authenticated")
	} else {
		log.Printf("[HTTP] Registered %d valid tokens", len(s.tokens))
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
