// Package mcpserver exposes the lens engine to agent hosts as MCP tools.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/toyz/railslens/internal/lens"
	"github.com/toyz/railslens/internal/utils"
)

// ServerName is the MCP implementation name
const ServerName = "railslens"

const instructions = `railslens links a Rails project's controllers, routes, views, models and schema.
Use rails_lenses to see what a file links to, rails_routes to list the cached route table,
and rails_rebuild_routes after editing config/routes.rb.`

// New creates the MCP server with every railslens tool registered. Engine warnings
// are forwarded to connected clients as log notifications.
func New(engine *lens.Engine, diagnostics *utils.DiagnosticSystem, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	engine.SetNotifier(lens.NotifierFunc(func(message string) {
		s.SendNotificationToAllClients("notifications/message", map[string]any{
			"level":  "warning",
			"logger": ServerName,
			"data":   message,
		})
	}))

	lensesTool := NewLensesTool(engine)
	s.AddTool(lensesTool.Definition(), lensesTool.Handle)

	routesTool := NewRoutesTool(engine)
	s.AddTool(routesTool.Definition(), routesTool.Handle)

	rebuildTool := NewRebuildTool(engine, diagnostics)
	s.AddTool(rebuildTool.Definition(), rebuildTool.Handle)

	return s
}

// Serve runs the MCP server over stdio until the client disconnects
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
