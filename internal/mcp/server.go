package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"multitool/internal/events"
)

// Invoker runs one named command; *service.Service satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// NewServer builds an MCP server exposing every command as a tool.
func NewServer(svc Invoker, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "multitool",
			Version: version,
		},
		nil,
	)
	registerTools(server, svc)
	return server
}

// RunServer serves MCP over stdio until the client disconnects or ctx ends.
// Scheduler events from hub are pushed to the session as log messages.
func RunServer(ctx context.Context, svc Invoker, hub *events.Hub, version string) error {
	server := NewServer(svc, version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go forwardEvents(ctx, server, hub)

	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

// NewSSEHandler serves MCP over SSE for clients that connect to a running
// `multitool serve`. All sessions share one server; events are forwarded
// until ctx ends.
func NewSSEHandler(ctx context.Context, svc Invoker, hub *events.Hub, version string) http.Handler {
	server := NewServer(svc, version)
	go forwardEvents(ctx, server, hub)
	return mcpsdk.NewSSEHandler(func(*http.Request) *mcpsdk.Server { return server }, nil)
}
