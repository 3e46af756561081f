package users

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/zilgopy/exa-mcp/internal/safety"
	"github.com/zilgopy/exa-mcp/internal/tools"
)

// UserTools returns a slice of tool registrations for all user MCP tools.
func UserTools(mgr UserManager, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolListUsers(mgr, audit),
		toolDeleteUser(mgr, audit),
	}
}

func toolListUsers(mgr UserManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("list_users",
		mcp.WithDescription("List all appliance users."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		list, err := mgr.List(ctx)
		if err != nil {
			tools.LogAudit(audit, "list_users", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "list_users", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolDeleteUser(mgr UserManager, audit *safety.AuditLogger) tools.Registration {
	const toolName = "delete_user"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Delete an existing appliance user."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("User name"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		params := map[string]any{"name": name}

		ok, err := mgr.Delete(ctx, name)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if !ok {
			tools.LogAudit(audit, toolName, params, "refused", start)
			return tools.ErrorResult(fmt.Sprintf("user %q was not deleted", name)), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("user %q deleted successfully", name)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
