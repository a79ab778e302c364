package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	formsURI          = "formbuilder://forms"
	formURIPrefix     = "formbuilder://form/"
	definitionURISufx = "/definition"
)

func (s *Server) registerResources() {
	// ── formbuilder://forms ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		formsURI,
		"All Forms",
		mcp.WithMIMEType("application/json"),
	), s.handleFormsResource)

	// ── formbuilder://form/{formId}/definition ─────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			formURIPrefix+"{formId}"+definitionURISufx,
			"Field list of a form",
		),
		s.handleDefinitionResource,
	)
}

func (s *Server) handleFormsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	forms, err := s.forms.ListForms()
	if err != nil {
		return nil, err
	}
	summaries := make([]formSummary, 0, len(forms))
	for _, f := range forms {
		summaries = append(summaries, s.summarizeForm(f))
	}
	return jsonResource(formsURI, summaries)
}

func (s *Server) handleDefinitionResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	formID := formIDFromURI(uri)
	if formID == "" {
		return nil, fmt.Errorf("could not extract formId from URI: %s", uri)
	}
	def, err := s.currentDefinition(formID)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, def)
}

// formIDFromURI extracts the id from "formbuilder://form/{id}/definition".
func formIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, formURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, definitionURISufx)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
