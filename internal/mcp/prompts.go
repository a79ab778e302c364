package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("design_form",
		mcp.WithPromptDescription("Guide through designing a new form field by field"),
		mcp.WithArgument("purpose",
			mcp.ArgumentDescription("What the form collects, e.g. event registration"),
			mcp.RequiredArgument(),
		),
	), s.handleDesignFormPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_submissions",
		mcp.WithPromptDescription("Summarize the submissions a form has received"),
		mcp.WithArgument("formId",
			mcp.ArgumentDescription("ID of the form"),
			mcp.RequiredArgument(),
		),
	), s.handleReviewSubmissionsPrompt)
}

func (s *Server) handleDesignFormPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	purpose := req.Params.Arguments["purpose"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Design a form for: %s", purpose),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Design a form for "%s". Follow these steps:

1. Check list_templates; if one fits, use create_form_from_template, otherwise create_form
2. Call list_field_kinds, then describe_field_kind for each kind you plan to use
3. Start with a TitleField, then add input fields with add_field, passing labels, placeholders and the required flag as attributes
4. Use SeparatorField or SubTitleField to group related questions
5. Read the result with get_form and fix ordering with move_field

Do not publish the form; the user reviews it first.`, purpose),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewSubmissionsPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	formID := req.Params.Arguments["formId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review submissions of form %s", formID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review the submissions of form %s:

1. Use get_form to learn what each field id means
2. Use list_submissions to read the answers
3. Report the number of submissions, the answer distribution of select and checkbox fields, and notable free-text answers`, formID),
				},
			},
		},
	}, nil
}
