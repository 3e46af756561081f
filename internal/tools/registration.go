// Package tools holds the registration plumbing shared by the per-resource
// tool packages (tenants, users, alerts, graphql) and the result/audit
// helpers their handlers use.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration is one MCP tool ready to be installed: its schema and the
// handler that serves it. The per-resource packages each return a slice of
// these so main can assemble the full tool surface without knowing any
// tool's wiring.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll installs every registration on the MCP server.
func RegisterAll(s *server.MCPServer, registrations []Registration) {
	for _, reg := range registrations {
		s.AddTool(reg.Tool, reg.Handler)
	}
}
