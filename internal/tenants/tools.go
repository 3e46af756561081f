package tenants

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/zilgopy/exa-mcp/internal/commands"
	"github.com/zilgopy/exa-mcp/internal/progress"
	"github.com/zilgopy/exa-mcp/internal/safety"
	"github.com/zilgopy/exa-mcp/internal/tools"
)

// nidFormatHint documents the accepted NID argument format.
const nidFormatHint = "Each element should be a single NID (e.g. '10.20.40.1@o2ib') or a continuous NID range (e.g. '10.20.40.[0-254]@o2ib')."

// CommandWaiter tracks a server-side command to a terminal state.
// *commands.Watcher is the production implementation.
type CommandWaiter interface {
	Wait(ctx context.Context, id int) (*commands.Summary, error)
}

// TenantTools returns a slice of tool registrations for all tenant MCP
// tools. Each tool is wired to the provided TenantManager, CommandWaiter,
// progress Reporter, safety Filter, and AuditLogger.
func TenantTools(
	mgr TenantManager,
	waiter CommandWaiter,
	reporter progress.Reporter,
	filter *safety.Filter,
	audit *safety.AuditLogger,
) []tools.Registration {
	return []tools.Registration{
		toolListTenants(mgr, filter, audit),
		toolCreateTenant(mgr, waiter, reporter, filter, audit),
		toolModifyTenantQuota(mgr, waiter, reporter, filter, audit),
		toolDestroyTenant(mgr, waiter, reporter, filter, audit),
		toolAddNids(mgr, waiter, reporter, filter, audit),
		toolRemoveNids(mgr, waiter, reporter, filter, audit),
	}
}

// quotaLimitsFromRequest collects the optional quota limit arguments shared
// by create_tenant and modify_tenant_quota.
func quotaLimitsFromRequest(req mcp.CallToolRequest) QuotaLimits {
	return QuotaLimits{
		InodeHard: req.GetString("inode_hard", ""),
		InodeSoft: req.GetString("inode_soft", ""),
		KbyteHard: req.GetString("kbyte_hard", ""),
		KbyteSoft: req.GetString("kbyte_soft", ""),
	}
}

// withQuotaLimitOptions appends the four optional quota limit string
// parameters to a tool definition.
func withQuotaLimitOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("inode_hard", mcp.Description("Hard inode limit")),
		mcp.WithString("inode_soft", mcp.Description("Soft inode limit")),
		mcp.WithString("kbyte_hard", mcp.Description("Hard kbyte limit")),
		mcp.WithString("kbyte_soft", mcp.Description("Soft kbyte limit")),
	}
}

func toolListTenants(mgr TenantManager, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("list_tenants",
		mcp.WithDescription("List all tenants with their filesets, NID ranges, and quotas."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		list, err := mgr.List(ctx)
		if err != nil {
			tools.LogAudit(audit, "list_tenants", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		// Apply filter to the result set.
		filtered := make([]Tenant, 0, len(list))
		for _, t := range list {
			if filter.IsAllowed(t.Name) {
				filtered = append(filtered, t)
			}
		}

		tools.LogAudit(audit, "list_tenants", params, "ok", start)
		return tools.JSONResult(filtered), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCreateTenant(mgr TenantManager, waiter CommandWaiter, reporter progress.Reporter, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const toolName = "create_tenant"

	opts := []mcp.ToolOption{
		mcp.WithDescription("Create a new tenant with optional NIDs and quota limits. " + nidFormatHint),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tenant name"),
		),
		mcp.WithArray("nids",
			mcp.Description("NIDs or NID ranges granted to the tenant. "+nidFormatHint),
			mcp.Items(map[string]any{"type": "string"}),
		),
	}
	opts = append(opts, withQuotaLimitOptions()...)
	tool := mcp.NewTool(toolName, opts...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		nids := req.GetStringSlice("nids", nil)
		quota := quotaLimitsFromRequest(req)
		params := map[string]any{"name": name, "nids": nids}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to tenant %q is not allowed", name)), nil
		}

		id, err := mgr.Create(ctx, name, nids, quota)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		reporter.Info(ctx, fmt.Sprintf("Create tenant '%s' operation has started.", name))

		summary, err := waiter.Wait(ctx, id)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok: "+summary.State, start)
		return tools.JSONResult(summary), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolModifyTenantQuota(mgr TenantManager, waiter CommandWaiter, reporter progress.Reporter, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const toolName = "modify_tenant_quota"

	opts := []mcp.ToolOption{
		mcp.WithDescription("Modify a tenant's quota limits. Only the provided limits are changed."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tenant name"),
		),
	}
	opts = append(opts, withQuotaLimitOptions()...)
	tool := mcp.NewTool(toolName, opts...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		quota := quotaLimitsFromRequest(req)
		params := map[string]any{"name": name}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to tenant %q is not allowed", name)), nil
		}

		id, err := mgr.SetQuota(ctx, name, quota)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		reporter.Info(ctx, fmt.Sprintf("Quota change for %s started, id: %d", name, id))

		summary, err := waiter.Wait(ctx, id)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok: "+summary.State, start)
		return tools.JSONResult(summary), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// cancelledResult is the structured response returned when a destructive
// operation is not confirmed. No remote call is made in that case.
type cancelledResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func toolDestroyTenant(mgr TenantManager, waiter CommandWaiter, reporter progress.Reporter, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const toolName = "destroy_tenant"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Destroy a tenant, retaining its data. Requires confirm=true."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tenant name"),
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Must be true to actually destroy the tenant (default: false)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		confirm := req.GetBool("confirm", false)
		params := map[string]any{"name": name, "confirm": confirm}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to tenant %q is not allowed", name)), nil
		}

		reporter.Warn(ctx, fmt.Sprintf("Warning: You are about to delete tenant '%s'. This action is irreversible!", name))

		if !confirm {
			reporter.Info(ctx, "Operation cancelled. To confirm deletion, set 'confirm' parameter to true.")
			tools.LogAudit(audit, toolName, params, "cancelled", start)
			return tools.JSONResult(cancelledResult{
				Status:  "cancelled",
				Message: "Deletion not confirmed. Set 'confirm=true' to proceed.",
			}), nil
		}

		id, err := mgr.Destroy(ctx, name)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		reporter.Info(ctx, fmt.Sprintf("Tenant '%s' deletion operation has started, data will be retained.", name))

		summary, err := waiter.Wait(ctx, id)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok: "+summary.State, start)
		return tools.JSONResult(summary), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolAddNids(mgr TenantManager, waiter CommandWaiter, reporter progress.Reporter, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const toolName = "add_nids_to_tenant"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Add NIDs (Network Identifiers) or NID ranges to a tenant. "+nidFormatHint),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tenant name"),
		),
		mcp.WithArray("nids",
			mcp.Required(),
			mcp.Description("NIDs or NID ranges to add. "+nidFormatHint),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		nids := req.GetStringSlice("nids", nil)
		params := map[string]any{"name": name, "nids": nids}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to tenant %q is not allowed", name)), nil
		}

		id, err := mgr.AddNids(ctx, name, nids)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		reporter.Info(ctx, fmt.Sprintf("Add NIDs to tenant '%s' operation has started.", name))

		summary, err := waiter.Wait(ctx, id)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok: "+summary.State, start)
		return tools.JSONResult(summary), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolRemoveNids(mgr TenantManager, waiter CommandWaiter, reporter progress.Reporter, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	const toolName = "remove_nids_from_tenant"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Remove NIDs (Network Identifiers) or NID ranges from a tenant. "+nidFormatHint),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tenant name"),
		),
		mcp.WithArray("nids",
			mcp.Required(),
			mcp.Description("NIDs or NID ranges to remove. "+nidFormatHint),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		nids := req.GetStringSlice("nids", nil)
		params := map[string]any{"name": name, "nids": nids}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to tenant %q is not allowed", name)), nil
		}

		id, err := mgr.RemoveNids(ctx, name, nids)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		reporter.Info(ctx, fmt.Sprintf("Remove NIDs from tenant '%s' operation has started.", name))

		summary, err := waiter.Wait(ctx, id)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok: "+summary.State, start)
		return tools.JSONResult(summary), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
