// Package progress provides the side channel used by long-running tools to
// emit informational and warning text to the MCP client while an operation
// is in flight. It is purely advisory and never part of a tool's return
// value.
package progress

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/server"
)

// Reporter emits out-of-band progress text during long-running operations.
type Reporter interface {
	Info(ctx context.Context, msg string)
	Warn(ctx context.Context, msg string)
}

// ServerReporter sends MCP logging notifications to the client session found
// in the request context. When no session is attached (e.g. the handler is
// invoked outside a live MCP request), messages fall back to the process log
// so they are not silently dropped.
type ServerReporter struct{}

// Compile-time interface check.
var _ Reporter = ServerReporter{}

// NewServerReporter returns a ServerReporter.
func NewServerReporter() ServerReporter {
	return ServerReporter{}
}

// Info sends an info-level notifications/message to the client.
func (ServerReporter) Info(ctx context.Context, msg string) {
	notify(ctx, "info", msg)
}

// Warn sends a warning-level notifications/message to the client.
func (ServerReporter) Warn(ctx context.Context, msg string) {
	notify(ctx, "warning", msg)
}

func notify(ctx context.Context, level, msg string) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		log.Printf("[%s] %s", level, msg)
		return
	}
	if err := srv.SendNotificationToClient(ctx, "notifications/message", map[string]any{
		"level": level,
		"data":  msg,
	}); err != nil {
		log.Printf("progress notification failed: %v", err)
	}
}

// Nop is a Reporter that discards every message.
type Nop struct{}

var _ Reporter = Nop{}

func (Nop) Info(ctx context.Context, msg string) {}
func (Nop) Warn(ctx context.Context, msg string) {}
