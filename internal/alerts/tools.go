package alerts

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/zilgopy/exa-mcp/internal/safety"
	"github.com/zilgopy/exa-mcp/internal/tools"
)

// AlertTools returns a slice of tool registrations for all alert MCP tools.
func AlertTools(mgr AlertManager, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGetErrors(mgr, audit),
	}
}

func toolGetErrors(mgr AlertManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("get_errors",
		mcp.WithDescription("Get the most recent error alerts, 10 by default."),
		mcp.WithNumber("number",
			mcp.Description("Number of alerts to return (default: 10)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		number := req.GetInt("number", 10)
		if number <= 0 {
			number = 10
		}
		params := map[string]any{"number": number}

		list, err := mgr.RecentErrors(ctx, number)
		if err != nil {
			tools.LogAudit(audit, "get_errors", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "get_errors", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
