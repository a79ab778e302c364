package mcpserver

import (
	"context"
	"fmt"

	"formbuilder/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerExportTools() {
	// ── list_export_destinations ───────────────────────
	s.mcp.AddTool(mcp.NewTool("list_export_destinations",
		mcp.WithDescription("List the databases a form's submissions are exported to"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
	), s.handleListDestinations)

	// ── run_export ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("run_export",
		mcp.WithDescription("Export the submissions made since the last export to a destination"),
		mcp.WithString("destinationId",
			mcp.Description("ID of the export destination"),
			mcp.Required(),
		),
	), s.handleRunExport)
}

func (s *Server) handleListDestinations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	dests, err := s.exports.ListDestinations(formID)
	if err != nil {
		return nil, fmt.Errorf("list export destinations: %w", err)
	}
	if dests == nil {
		dests = []domain.ExportDestination{}
	}
	return jsonResult(dests)
}

func (s *Server) handleRunExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "destinationId")
	if err != nil {
		return nil, err
	}
	result, err := s.exports.RunExport(ctx, id)
	if result == nil {
		return nil, fmt.Errorf("run export: %w", err)
	}
	return jsonResult(result)
}
