// Package fields is the field element registry: one Element per FieldKind,
// each able to construct, validate and render its instances for the design
// canvas, the fill page and the properties panel.
package fields

import (
	"golang.org/x/net/html"

	"formbuilder/internal/domain"
)

// PaletteButton describes the draggable palette entry for a kind.
type PaletteButton struct {
	Kind  domain.FieldKind `json:"kind"`
	Label string           `json:"label"`
	Icon  string           `json:"icon"`
}

// ChangeFunc receives the string-encoded value of a field after every user edit.
type ChangeFunc func(id, value string)

// CommitFunc applies a fully validated attribute update to the owning store.
type CommitFunc func(id string, inst domain.FieldInstance)

// FillProps configures a fill-mode view.
type FillProps struct {
	OnChange     ChangeFunc
	Invalid      bool
	DefaultValue string
	Disabled     bool // view-only rendering of a past submission
}

// Element is the capability set every field kind implements.
type Element interface {
	Kind() domain.FieldKind
	Palette() PaletteButton
	Construct(id string) domain.FieldInstance
	Validate(inst domain.FieldInstance, raw string) bool
	RenderDesign(inst domain.FieldInstance) *html.Node
	RenderFill(inst domain.FieldInstance, props FillProps) *FillView
	RenderProperties(inst domain.FieldInstance, commit CommitFunc) *PropertiesForm
}

// FillView is the live, user-editable view of one field during form completion.
type FillView struct {
	inst     domain.FieldInstance
	value    string
	invalid  bool
	disabled bool
	onChange ChangeFunc
	encode   func(raw string) (string, error)
	validate func(inst domain.FieldInstance, value string) bool
	render   func(v *FillView) *html.Node
}

func newFillView(el Element, inst domain.FieldInstance, props FillProps, encode func(string) (string, error), render func(*FillView) *html.Node) *FillView {
	return &FillView{
		inst:     inst,
		value:    props.DefaultValue,
		invalid:  props.Invalid,
		disabled: props.Disabled,
		onChange: props.OnChange,
		encode:   encode,
		validate: el.Validate,
		render:   render,
	}
}

// Edit applies one user edit. The raw input is encoded into the field's wire
// value, re-validated to refresh the local invalid highlight, and reported to
// OnChange exactly once. Disabled and layout-only views ignore edits.
func (v *FillView) Edit(raw string) error {
	if v.disabled || v.encode == nil {
		return nil
	}
	value, err := v.encode(raw)
	if err != nil {
		return err
	}
	v.value = value
	v.invalid = !v.validate(v.inst, value)
	if v.onChange != nil {
		v.onChange(v.inst.ID, value)
	}
	return nil
}

// Node renders the view with its current value and highlight.
func (v *FillView) Node() *html.Node { return v.render(v) }

func (v *FillView) ID() string      { return v.inst.ID }
func (v *FillView) Value() string   { return v.value }
func (v *FillView) Invalid() bool   { return v.invalid }
func (v *FillView) Disabled() bool  { return v.disabled }
func (v *FillView) Editable() bool  { return !v.disabled && v.encode != nil }
