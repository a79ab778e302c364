package fields

import (
	"fmt"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

// Registry maps every FieldKind to its Element.
type Registry struct {
	elements map[domain.FieldKind]Element
}

// NewRegistry builds the registry. It panics if any kind lacks an element.
func NewRegistry() *Registry {
	r := &Registry{elements: make(map[domain.FieldKind]Element)}
	for _, kind := range domain.AllKinds() {
		el := elementFor(kind)
		if el == nil || el.Kind() != kind {
			panic(fmt.Sprintf("fields: no element registered for %s", kind))
		}
		r.elements[kind] = el
	}
	return r
}

func elementFor(kind domain.FieldKind) Element {
	switch kind {
	case domain.FieldKindText:
		return newTextElement()
	case domain.FieldKindNumber:
		return newNumberElement()
	case domain.FieldKindEmail:
		return newEmailElement()
	case domain.FieldKindTextarea:
		return newTextareaElement()
	case domain.FieldKindDate:
		return dateElement{}
	case domain.FieldKindSelect:
		return selectElement{}
	case domain.FieldKindCheckbox:
		return checkboxElement{}
	case domain.FieldKindTitle:
		return newTitleElement()
	case domain.FieldKindSubTitle:
		return newSubTitleElement()
	case domain.FieldKindParagraph:
		return newParagraphElement()
	case domain.FieldKindSeparator:
		return newSeparatorElement()
	case domain.FieldKindSpacer:
		return newSpacerElement()
	}
	return nil
}

// Lookup returns the element for kind.
func (r *Registry) Lookup(kind domain.FieldKind) (Element, error) {
	el, ok := r.elements[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	return el, nil
}

// Palette returns the palette buttons in palette order.
func (r *Registry) Palette() []PaletteButton {
	kinds := domain.AllKinds()
	out := make([]PaletteButton, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, r.elements[k].Palette())
	}
	return out
}

// Construct returns a new instance of kind carrying its default attributes.
func (r *Registry) Construct(kind domain.FieldKind, id string) (domain.FieldInstance, error) {
	el, err := r.Lookup(kind)
	if err != nil {
		return domain.FieldInstance{}, err
	}
	return el.Construct(id), nil
}

// Validate reports whether raw is an acceptable value for inst.
// Instances of an unknown kind never validate.
func (r *Registry) Validate(inst domain.FieldInstance, raw string) bool {
	el, err := r.Lookup(inst.Kind)
	if err != nil {
		return false
	}
	return el.Validate(inst, raw)
}

func (r *Registry) RenderDesign(inst domain.FieldInstance) *html.Node {
	el, err := r.Lookup(inst.Kind)
	if err != nil {
		return unknownNode(inst)
	}
	return el.RenderDesign(inst)
}

func (r *Registry) RenderFill(inst domain.FieldInstance, props FillProps) (*FillView, error) {
	el, err := r.Lookup(inst.Kind)
	if err != nil {
		return nil, err
	}
	return el.RenderFill(inst, props), nil
}

func (r *Registry) RenderProperties(inst domain.FieldInstance, commit CommitFunc) (*PropertiesForm, error) {
	el, err := r.Lookup(inst.Kind)
	if err != nil {
		return nil, err
	}
	return el.RenderProperties(inst, commit), nil
}

func unknownNode(inst domain.FieldInstance) *html.Node {
	return view.El("div",
		view.Class("field", "field-unknown"),
		view.A("data-field-id", inst.ID),
		fmt.Sprintf("Unknown field type %q", inst.Kind),
	)
}
