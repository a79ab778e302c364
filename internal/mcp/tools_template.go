package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTemplateTools() {
	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the form templates in the templates folder"),
	), s.handleListTemplates)

	// ── create_form_from_template ──────────────────────
	s.mcp.AddTool(mcp.NewTool("create_form_from_template",
		mcp.WithDescription("Create a new unpublished form whose fields are copied from a template"),
		mcp.WithString("slug",
			mcp.Description("Template slug, see list_templates"),
			mcp.Required(),
		),
		mcp.WithString("name",
			mcp.Description("Name of the new form, 4 to 100 characters"),
			mcp.Required(),
		),
		mcp.WithString("description",
			mcp.Description("Optional description"),
		),
	), s.handleCreateFromTemplate)

	// ── save_as_template ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_as_template",
		mcp.WithDescription("Save a form's fields as a template file"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithString("slug",
			mcp.Description("File name of the template, without extension"),
			mcp.Required(),
		),
	), s.handleSaveAsTemplate)
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type templateSummary struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Fields      int    `json:"fields"`
	}
	templates := s.templates.List()
	out := make([]templateSummary, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateSummary{Slug: t.Slug, Name: t.Name, Description: t.Description, Fields: len(t.Fields)})
	}
	return jsonResult(out)
}

func (s *Server) handleCreateFromTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := requireString(req, "slug")
	if err != nil {
		return nil, err
	}
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}
	f, err := s.templates.CreateFromTemplate(s.ctx, slug, name, req.GetString("description", ""))
	if err != nil {
		return nil, fmt.Errorf("create form from template: %w", err)
	}
	return jsonResult(s.summarizeForm(*f))
}

func (s *Server) handleSaveAsTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	slug, err := requireString(req, "slug")
	if err != nil {
		return nil, err
	}
	// Pending designer edits are part of what the user sees.
	if err := s.designer.Save(s.ctx, formID); err != nil && !isSessionNotOpen(err) {
		return nil, fmt.Errorf("save form: %w", err)
	}
	t, err := s.templates.SaveAsTemplate(formID, slug)
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return textResult(fmt.Sprintf("Saved template %s with %d fields", t.Slug, len(t.Fields))), nil
}
