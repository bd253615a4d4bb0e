package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/toyz/railslens/internal/lens"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/utils"
)

// LensesTool handles the rails_lenses MCP tool
type LensesTool struct {
	engine *lens.Engine
}

// NewLensesTool creates a LensesTool
func NewLensesTool(engine *lens.Engine) *LensesTool {
	return &LensesTool{engine: engine}
}

// Definition returns the MCP tool definition for registration
func (t *LensesTool) Definition() mcp.Tool {
	return mcp.NewTool("rails_lenses",
		mcp.WithDescription(
			"List the code lenses of a file in a Rails project: the route and view of each "+
				"controller action, the model of each schema table, the table of a model, or the "+
				"controller and action behind a view template. Returns a JSON array.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the file, absolute or relative to the workspace root."),
		),
		mcp.WithString("text",
			mcp.Description("Unsaved buffer contents. Optional, the file on disk is read when omitted."),
		),
	)
}

// Handle processes the rails_lenses tool call
func (t *LensesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}
	path = t.absolute(path)

	doc := models.Document{Path: path}
	if text, ok := req.GetArguments()["text"].(string); ok {
		doc.Text = text
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reading %s: %v", path, err)), nil
		}
		doc.Text = string(data)
	}

	lenses := t.engine.Scan(ctx, doc)
	if lenses == nil {
		lenses = []models.Lens{}
	}
	return jsonResult(lenses)
}

// absolute resolves a relative path against the first workspace
func (t *LensesTool) absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if roots := t.engine.Workspaces(); len(roots) > 0 {
		return filepath.Join(roots[0], path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// RoutesTool handles the rails_routes MCP tool
type RoutesTool struct {
	engine *lens.Engine
}

// NewRoutesTool creates a RoutesTool
func NewRoutesTool(engine *lens.Engine) *RoutesTool {
	return &RoutesTool{engine: engine}
}

// Definition returns the MCP tool definition for registration
func (t *RoutesTool) Definition() mcp.Tool {
	return mcp.NewTool("rails_routes",
		mcp.WithDescription("List the cached route table of a Rails workspace as JSON."),
		mcp.WithString("controller",
			mcp.Description("Only list routes of this controller, e.g. 'users' or 'admin/users'."),
		),
		mcp.WithString("workspace",
			mcp.Description("Workspace root. Optional when the server manages a single workspace."),
		),
	)
}

// Handle processes the rails_routes tool call
func (t *RoutesTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := t.engine.Workspace(req.GetString("workspace", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	routes, err := t.engine.Routes(root, req.GetString("controller", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing routes: %v", err)), nil
	}
	if routes == nil {
		routes = []models.Route{}
	}
	return jsonResult(routes)
}

// RebuildTool handles the rails_rebuild_routes MCP tool
type RebuildTool struct {
	engine      *lens.Engine
	diagnostics *utils.DiagnosticSystem
}

// NewRebuildTool creates a RebuildTool
func NewRebuildTool(engine *lens.Engine, diagnostics *utils.DiagnosticSystem) *RebuildTool {
	return &RebuildTool{engine: engine, diagnostics: diagnostics}
}

// Definition returns the MCP tool definition for registration
func (t *RebuildTool) Definition() mcp.Tool {
	return mcp.NewTool("rails_rebuild_routes",
		mcp.WithDescription(
			"Regenerate the cached route table by running the Rails routes command in the "+
				"workspace. Call this after config/routes.rb changed.",
		),
		mcp.WithString("workspace",
			mcp.Description("Workspace root. Optional when the server manages a single workspace."),
		),
	)
}

// Handle processes the rails_rebuild_routes tool call
func (t *RebuildTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := t.engine.Workspace(req.GetString("workspace", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	routes, err := t.engine.Rebuild(ctx, root)
	if err != nil {
		t.diagnostics.Warn("Route rebuild for %s failed: %v", root, err)
		return mcp.NewToolResultError(fmt.Sprintf("rebuilding routes: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Rebuilt the route table of %s: %d routes.", root, len(routes))), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
