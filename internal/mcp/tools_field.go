package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"formbuilder/internal/designer"
	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/service"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerFieldTools() {
	// ── list_field_kinds ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_field_kinds",
		mcp.WithDescription("List the field kinds that can be placed on a form, in palette order"),
	), s.handleListFieldKinds)

	// ── describe_field_kind ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("describe_field_kind",
		mcp.WithDescription("Describe a field kind: its attribute JSON schema and default attributes"),
		mcp.WithString("kind",
			mcp.Description("Field kind, e.g. TextField or SelectField"),
			mcp.Required(),
		),
	), s.handleDescribeFieldKind)

	// ── add_field ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_field",
		mcp.WithDescription("Add a field to an unpublished form. The change is saved and recorded in the designer history."),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithString("kind",
			mcp.Description("Field kind, see list_field_kinds"),
			mcp.Required(),
		),
		mcp.WithNumber("index",
			mcp.Description("Position to insert at, 0 is the top. Omit to append."),
		),
		mcp.WithString("attributes",
			mcp.Description("Optional JSON object overriding the default attributes"),
		),
	), s.handleAddField)

	// ── update_field ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_field",
		mcp.WithDescription("Update attributes of a field. Only the given attributes change."),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithString("fieldId",
			mcp.Description("ID of the field"),
			mcp.Required(),
		),
		mcp.WithString("attributes",
			mcp.Description(`JSON object with the attributes to set, e.g. {"label":"Email","required":true}`),
			mcp.Required(),
		),
	), s.handleUpdateField)

	// ── move_field ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_field",
		mcp.WithDescription("Move a field above or below another field"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithString("fieldId",
			mcp.Description("ID of the field to move"),
			mcp.Required(),
		),
		mcp.WithString("targetId",
			mcp.Description("ID of the field to move next to"),
			mcp.Required(),
		),
		mcp.WithString("position",
			mcp.Description(`"above" (default) or "below" the target`),
		),
	), s.handleMoveField)

	// ── remove_field ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_field",
		mcp.WithDescription("Remove a field from an unpublished form"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
		mcp.WithString("fieldId",
			mcp.Description("ID of the field"),
			mcp.Required(),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveField)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change to a form's fields"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change to a form's fields"),
		mcp.WithString("formId",
			mcp.Description("ID of the form"),
			mcp.Required(),
		),
	), s.handleRedo)
}

// ── Kinds ──────────────────────────────────────────────

type fieldKindInfo struct {
	Kind   domain.FieldKind `json:"kind"`
	Label  string           `json:"label"`
	Layout bool             `json:"layout"`
}

func (s *Server) handleListFieldKinds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	palette := s.registry.Palette()
	out := make([]fieldKindInfo, 0, len(palette))
	for _, btn := range palette {
		out = append(out, fieldKindInfo{Kind: btn.Kind, Label: btn.Label, Layout: btn.Kind.IsLayout()})
	}
	return jsonResult(out)
}

func (s *Server) handleDescribeFieldKind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := domain.FieldKind(req.GetString("kind", ""))
	inst, err := s.registry.Construct(kind, "example")
	if err != nil {
		return nil, err
	}
	return jsonResult(struct {
		Kind     domain.FieldKind   `json:"kind"`
		Layout   bool               `json:"layout"`
		Schema   *jsonschema.Schema `json:"schema"`
		Defaults domain.Attributes  `json:"defaults"`
	}{kind, kind.IsLayout(), AttributeSchema(inst.Attributes), inst.Attributes})
}

// AttributeSchema reflects the JSON schema of an attribute record.
func AttributeSchema(attrs domain.Attributes) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(attrs)
}

// ── Edits ──────────────────────────────────────────────

// edit opens the designer for formID, applies fn as one history step and
// saves the result.
func (s *Server) edit(formID string, fn func(*designer.Session) error) (domain.FormDefinition, error) {
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	if f.Published {
		return nil, service.ErrFormPublished
	}
	sess, err := s.designer.Open(s.ctx, formID)
	if err != nil {
		return nil, err
	}
	if err := s.designer.Do(formID, fn); err != nil {
		return nil, err
	}
	if err := s.designer.Save(s.ctx, formID); err != nil {
		return nil, fmt.Errorf("save form: %w", err)
	}
	s.emitFormChanged(s.ctx, formID)
	return sess.Store.Elements(), nil
}

// currentDefinition returns the live designer field list when the form is
// open, otherwise the stored one.
func (s *Server) currentDefinition(formID string) (domain.FormDefinition, error) {
	var def domain.FormDefinition
	err := s.designer.Do(formID, func(sess *designer.Session) error {
		def = sess.Store.Elements()
		return nil
	})
	if err == nil {
		return def, nil
	}
	if !isSessionNotOpen(err) {
		return nil, err
	}
	return s.forms.Definition(formID)
}

func isSessionNotOpen(err error) bool {
	return errors.Is(err, service.ErrSessionNotOpen)
}

// mergeAttributes overlays the JSON object patch on attrs and validates
// the result against the kind's schema.
func mergeAttributes(attrs domain.Attributes, patch string) (domain.Attributes, error) {
	base, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal([]byte(patch), &overlay); err != nil {
		return nil, fmt.Errorf("attributes must be a JSON object: %w", err)
	}
	for k, v := range overlay {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	next, err := domain.DecodeAttributes(attrs.Kind(), raw)
	if err != nil {
		return nil, err
	}
	next = fields.NormalizeAttributes(next)
	if err := fields.ValidateAttributes(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Server) handleAddField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	kind := domain.FieldKind(req.GetString("kind", ""))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	patch := req.GetString("attributes", "")

	var added domain.FieldInstance
	_, err = s.edit(formID, func(sess *designer.Session) error {
		index := intArg(req, "index", sess.Store.Len())
		inst, err := s.registry.Construct(kind, "")
		if err != nil {
			return err
		}
		if patch != "" {
			attrs, err := mergeAttributes(inst.Attributes, patch)
			if err != nil {
				return err
			}
			inst.Attributes = attrs
		}
		placed, err := sess.Insert(kind, index)
		if err != nil {
			return err
		}
		if patch != "" {
			placed, _ = placed.WithAttributes(inst.Attributes)
			sess.Store.UpdateElement(placed.ID, placed)
		}
		added = placed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add field: %w", err)
	}
	return jsonResult(added)
}

func (s *Server) handleUpdateField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	fieldID, err := requireString(req, "fieldId")
	if err != nil {
		return nil, err
	}
	patch, err := requireString(req, "attributes")
	if err != nil {
		return nil, err
	}

	var updated domain.FieldInstance
	_, err = s.edit(formID, func(sess *designer.Session) error {
		inst, ok := sess.Store.Element(fieldID)
		if !ok {
			return fmt.Errorf("field %s: %w", fieldID, domain.ErrNotFound)
		}
		attrs, err := mergeAttributes(inst.Attributes, patch)
		if err != nil {
			return err
		}
		next, err := inst.WithAttributes(attrs)
		if err != nil {
			return err
		}
		sess.Store.UpdateElement(fieldID, next)
		updated = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update field: %w", err)
	}
	return jsonResult(updated)
}

func (s *Server) handleMoveField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	fieldID, err := requireString(req, "fieldId")
	if err != nil {
		return nil, err
	}
	targetID, err := requireString(req, "targetId")
	if err != nil {
		return nil, err
	}
	below := req.GetString("position", "above") == "below"

	def, err := s.edit(formID, func(sess *designer.Session) error {
		if !sess.Move(fieldID, targetID, below) {
			return fmt.Errorf("cannot move %s next to %s", fieldID, targetID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("move field: %w", err)
	}
	return jsonResult(def.IDs())
}

func (s *Server) handleRemoveField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	fieldID, err := requireString(req, "fieldId")
	if err != nil {
		return nil, err
	}
	def, err := s.edit(formID, func(sess *designer.Session) error {
		if !sess.Delete(fieldID) {
			return fmt.Errorf("field %s: %w", fieldID, domain.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove field: %w", err)
	}
	return jsonResult(def.IDs())
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.travel(req, s.designer.Undo)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.travel(req, s.designer.Redo)
}

func (s *Server) travel(req mcp.CallToolRequest, step func(context.Context, string) error) (*mcp.CallToolResult, error) {
	formID, err := requireString(req, "formId")
	if err != nil {
		return nil, err
	}
	if _, err := s.designer.Open(s.ctx, formID); err != nil {
		return nil, err
	}
	if err := step(s.ctx, formID); err != nil {
		return nil, err
	}
	if err := s.designer.Save(s.ctx, formID); err != nil {
		return nil, fmt.Errorf("save form: %w", err)
	}
	s.emitFormChanged(s.ctx, formID)
	def, err := s.currentDefinition(formID)
	if err != nil {
		return nil, err
	}
	return jsonResult(def.IDs())
}
