package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"formbuilder/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerFormTools() {
	// ── list_forms ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_forms",
		mcp.WithDescription("List all forms with their publish state, visits and submissions"),
	), s.handleListForms)

	// ── create_form ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_form",
		mcp.WithDescription("Create a new, empty, unpublished form"),
		mcp.WithString("name",
			mcp.Description("Form name, 4 to 100 characters"),
			mcp.Required(),
		),
		mcp.WithString("description",
			mcp.Description("Optional description"),
		),
	), s.handleCreateForm)

	// ── get_form ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_form",
		mcp.WithDescription("Get a form and its ordered field list"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
	), s.handleGetForm)

	// ── publish_form ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_form",
		mcp.WithDescription("Publish a form. Published forms accept submissions and can no longer be edited. Requires user approval."),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handlePublishForm)

	// ── delete_form ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_form",
		mcp.WithDescription("Delete a form with its submissions, history and export destinations. Requires user approval."),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteForm)

	// ── list_submissions ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_submissions",
		mcp.WithDescription("List the submissions of a form, oldest first"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of submissions to return, newest kept (default 50)"),
		),
	), s.handleListSubmissions)
}

// formSummary is the compact form shape returned to agents.
type formSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Published   bool   `json:"published"`
	ShareLink   string `json:"shareLink,omitempty"`
	Visits      int    `json:"visits"`
	Submissions int    `json:"submissions"`
	Fields      int    `json:"fields"`
}

func (s *Server) summarizeForm(f domain.Form) formSummary {
	sum := formSummary{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Published:   f.Published,
		Visits:      f.Visits,
		Submissions: f.Submissions,
	}
	if f.Published {
		sum.ShareLink = s.shareLink(f.ShareURL)
	}
	if def, err := f.Definition(); err == nil {
		sum.Fields = len(def)
	}
	return sum
}

func (s *Server) handleListForms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	forms, err := s.forms.ListForms()
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	out := make([]formSummary, 0, len(forms))
	for _, f := range forms {
		out = append(out, s.summarizeForm(f))
	}
	return jsonResult(out)
}

func (s *Server) handleCreateForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}
	f, err := s.forms.CreateForm(s.ctx, name, req.GetString("description", ""))
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	return jsonResult(s.summarizeForm(*f))
}

func (s *Server) handleGetForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	def, err := s.currentDefinition(formID)
	if err != nil {
		return nil, err
	}
	return jsonResult(struct {
		formSummary
		Elements domain.FormDefinition `json:"elements"`
	}{s.summarizeForm(*f), def})
}

func (s *Server) handlePublishForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	if f.Published {
		return jsonResult(s.summarizeForm(*f))
	}

	if err := s.approval.Request("publish_form",
		fmt.Sprintf("Publish form %q? It cannot be edited afterwards.", f.Name),
		formMetadata(formID),
	); err != nil {
		return textResult(err.Error()), nil
	}

	// Unsaved designer edits go out with the published version.
	if err := s.designer.Save(s.ctx, formID); err != nil && !isSessionNotOpen(err) {
		return nil, fmt.Errorf("save form: %w", err)
	}
	f, err = s.forms.Publish(s.ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("publish form: %w", err)
	}
	s.designer.Close(formID)
	s.emitFormChanged(s.ctx, formID)
	return jsonResult(s.summarizeForm(*f))
}

func (s *Server) handleDeleteForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}

	if err := s.approval.Request("delete_form",
		fmt.Sprintf("Delete form %q and its %d submissions?", f.Name, f.Submissions),
		formMetadata(formID),
	); err != nil {
		return textResult(err.Error()), nil
	}

	if err := s.designer.Forget(formID); err != nil {
		return nil, fmt.Errorf("clear history: %w", err)
	}
	if err := s.forms.DeleteForm(s.ctx, formID); err != nil {
		return nil, fmt.Errorf("delete form: %w", err)
	}
	return textResult(fmt.Sprintf("Deleted form %s", formID)), nil
}

func (s *Server) handleListSubmissions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	subs, err := s.forms.ListSubmissions(formID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	limit := intArg(req, "limit", 50)
	if limit > 0 && len(subs) > limit {
		subs = subs[len(subs)-limit:]
	}

	type submission struct {
		ID        string          `json:"id"`
		CreatedAt string          `json:"createdAt"`
		Values    json.RawMessage `json:"values"`
	}
	out := make([]submission, 0, len(subs))
	for _, sub := range subs {
		out = append(out, submission{
			ID:        sub.ID,
			CreatedAt: sub.CreatedAt.UTC().Format(time.RFC3339),
			Values:    json.RawMessage(sub.Content),
		})
	}
	return jsonResult(out)
}

func formMetadata(formID string) string {
	data, _ := json.Marshal(map[string]string{"formId": formID})
	return string(data)
}
