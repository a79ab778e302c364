package fields

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

var ErrUnknownOption = errors.New("value is not one of the field options")

type selectElement struct{}

func (selectElement) Kind() domain.FieldKind { return domain.FieldKindSelect }

func (selectElement) Palette() PaletteButton {
	return PaletteButton{Kind: domain.FieldKindSelect, Label: "Select field", Icon: "dropdown-menu"}
}

func (selectElement) Construct(id string) domain.FieldInstance {
	return domain.NewFieldInstance(id, domain.SelectAttributes{
		InputAttributes: defaultInput("Select field", "Value here..."),
		Options:         []string{},
	})
}

func (selectElement) Validate(inst domain.FieldInstance, raw string) bool {
	return validateRequired(inst, raw)
}

// DedupeOptions drops repeated options keeping the first occurrence.
func DedupeOptions(options []string) []string {
	seen := make(map[string]struct{}, len(options))
	out := make([]string, 0, len(options))
	for _, o := range options {
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// NormalizeAttributes applies the save-time cleanups of a kind: Select
// options lose their duplicates, first occurrence kept.
func NormalizeAttributes(attrs domain.Attributes) domain.Attributes {
	if s, ok := attrs.(domain.SelectAttributes); ok {
		s.Options = DedupeOptions(s.Options)
		return s
	}
	return attrs
}

func optionNodes(options []string, selected, placeholder string) []*html.Node {
	nodes := []*html.Node{
		view.El("option", view.A("value", ""), view.When(selected == "", view.A("selected", "")), placeholder),
	}
	for _, o := range options {
		nodes = append(nodes, view.El("option",
			view.A("value", o),
			view.When(o == selected, view.A("selected", "")),
			o,
		))
	}
	return nodes
}

func (selectElement) RenderDesign(inst domain.FieldInstance) *html.Node {
	a := inst.Attributes.(domain.SelectAttributes)
	return wrapper(inst, modeDesign,
		fieldLabel(inst.ID, a.Label, a.Required, false),
		view.El("select",
			view.Class("field-control"),
			view.A("disabled", ""),
			optionNodes(nil, "", a.Placeholder),
		),
		helperText(a.HelperText, false),
	)
}

func (e selectElement) RenderFill(inst domain.FieldInstance, props FillProps) *FillView {
	a := inst.Attributes.(domain.SelectAttributes)
	encode := func(raw string) (string, error) {
		if raw == "" {
			return "", nil
		}
		for _, o := range a.Options {
			if o == raw {
				return raw, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownOption, raw)
	}
	return newFillView(e, inst, props, encode, func(v *FillView) *html.Node {
		return wrapper(inst, modeFill,
			fieldLabel(inst.ID, a.Label, a.Required, v.Invalid()),
			view.El("select",
				controlAttrs(v, a.Required),
				optionNodes(a.Options, v.Value(), a.Placeholder),
			),
			helperText(a.HelperText, v.Invalid()),
		)
	})
}

func (selectElement) RenderProperties(inst domain.FieldInstance, commit CommitFunc) *PropertiesForm {
	controls := append(inputControls(), propertyControl{
		Name:        "options",
		Label:       "Options",
		Type:        controlOptions,
		Description: "Choices offered by the field. Duplicates are dropped on save.",
	})
	return newPropertiesForm(inst, commit, controls)
}
