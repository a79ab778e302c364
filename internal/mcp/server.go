package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"formbuilder/internal/fields"
	"formbuilder/internal/service"
	"formbuilder/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server of the form builder. Agents use it to create
// forms, place and edit fields, and run exports.
type Server struct {
	ctx      context.Context
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	registry *fields.Registry

	forms     *service.FormService
	designer  *service.DesignerService
	templates *service.TemplateService
	exports   *service.ExportService

	// shareLink turns a share URL into the public address.
	shareLink func(shareURL string) string
}

// Deps holds everything the App layer hands to the MCP server.
type Deps struct {
	Emitter   EventEmitter
	Registry  *fields.Registry
	Forms     *service.FormService
	Designer  *service.DesignerService
	Templates *service.TemplateService
	Exports   *service.ExportService
	ShareLink func(shareURL string) string
	Approvals *storage.ApprovalStore // When set, approvals go through SQLite (standalone mode)
}

// New creates the MCP server with all tools, resources and prompts.
func New(ctx context.Context, deps Deps) *Server {
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.Approvals != nil {
		approval.SetStore(deps.Approvals)
	}
	shareLink := deps.ShareLink
	if shareLink == nil {
		shareLink = func(shareURL string) string { return "/f/" + shareURL }
	}
	s := &Server{
		ctx:       ctx,
		emitter:   deps.Emitter,
		approval:  approval,
		registry:  deps.Registry,
		forms:     deps.Forms,
		designer:  deps.Designer,
		templates: deps.Templates,
		exports:   deps.Exports,
		shareLink: shareLink,
	}

	s.mcp = server.NewMCPServer(
		"formbuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerFormTools()
	s.registerFieldTools()
	s.registerTemplateTools()
	s.registerExportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// MCP exposes the underlying server, for in-process clients and tests.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

func (s *Server) Approve(actionID string) { s.approval.Approve(actionID) }

func (s *Server) Reject(actionID string) { s.approval.Reject(actionID) }

// ── Helpers ────────────────────────────────────────────────

// emitFormChanged tells the frontend a form was edited outside the designer.
func (s *Server) emitFormChanged(ctx context.Context, formID string) {
	s.emitter.Emit(ctx, "mcp:form-changed", map[string]string{"formId": formID})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// requireString returns a non-empty string argument.
func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	if v, ok := req.GetArguments()[key].(float64); ok {
		return int(v)
	}
	return def
}

func boolPtr(b bool) *bool { return &b }
