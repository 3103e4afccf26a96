package mcpserver

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"multitool/internal/events"
)

// forwardEvents pushes every hub event to the connected sessions until ctx
// ends.
func forwardEvents(ctx context.Context, server *mcpsdk.Server, hub *events.Hub) {
	if hub == nil {
		return
	}
	ch, cancel := hub.Subscribe(32)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			logToSessions(server, ev)
		}
	}
}

// logToSessions is best effort: ServerSession.Log silently drops messages
// until the client has called SetLevel.
func logToSessions(server *mcpsdk.Server, ev events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for ss := range server.Sessions() {
		params := &mcpsdk.LoggingMessageParams{
			Level:  "info",
			Logger: "multitool-" + ev.Type,
			Data:   ev,
		}
		if u, ok := ev.Payload.(events.TranslationUpdate); ok && !u.Success {
			params.Level = "warning"
		}
		_ = ss.Log(ctx, params)
	}
}
