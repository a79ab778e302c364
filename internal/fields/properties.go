package fields

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidProperty = errors.New("invalid property value")
	ErrOptionIndex     = errors.New("option index out of range")
)

type controlType string

const (
	controlText     controlType = "text"
	controlTextarea controlType = "textarea"
	controlSwitch   controlType = "switch"
	controlNumber   controlType = "number"
	controlOptions  controlType = "options"
)

type propertyControl struct {
	Name        string
	Label       string
	Type        controlType
	Description string
}

// PropertiesForm is the editable properties panel of one field instance.
// Edits accumulate in a draft; Blur validates the whole draft and commits it
// as one update, or commits nothing.
type PropertiesForm struct {
	inst     domain.FieldInstance
	controls []propertyControl
	draft    map[string]any
	options  []string
	errs     map[string]string
	commit   CommitFunc
}

func newPropertiesForm(inst domain.FieldInstance, commit CommitFunc, controls []propertyControl) *PropertiesForm {
	p := &PropertiesForm{inst: inst, controls: controls, commit: commit}
	p.reset()
	return p
}

func (p *PropertiesForm) reset() {
	p.draft = map[string]any{}
	if data, err := json.Marshal(p.inst.Attributes); err == nil {
		_ = json.Unmarshal(data, &p.draft)
	}
	p.options = nil
	if s, ok := p.inst.Attributes.(domain.SelectAttributes); ok {
		p.options = append([]string{}, s.Options...)
	}
	delete(p.draft, "options")
	p.errs = nil
}

// Instance returns the last committed instance.
func (p *PropertiesForm) Instance() domain.FieldInstance { return p.inst }

// Errors returns the per-attribute messages of the last failed Blur.
func (p *PropertiesForm) Errors() map[string]string { return p.errs }

// Draft returns the current value of a control.
func (p *PropertiesForm) Draft(name string) (any, bool) {
	v, ok := p.draft[name]
	return v, ok
}

// Options returns the draft option list of a select field.
func (p *PropertiesForm) Options() []string { return append([]string(nil), p.options...) }

func (p *PropertiesForm) control(name string) (propertyControl, bool) {
	for _, c := range p.controls {
		if c.Name == name {
			return c, true
		}
	}
	return propertyControl{}, false
}

// Set edits one control of the draft. Nothing is committed until Blur.
func (p *PropertiesForm) Set(name, value string) error {
	c, ok := p.control(name)
	if !ok || c.Type == controlOptions {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	switch c.Type {
	case controlSwitch:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidProperty, name, value)
		}
		p.draft[name] = b
	case controlNumber:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidProperty, name, value)
		}
		p.draft[name] = n
	default:
		p.draft[name] = value
	}
	return nil
}

func (p *PropertiesForm) AddOption(value string) {
	p.options = append(p.options, value)
}

func (p *PropertiesForm) SetOption(i int, value string) error {
	if i < 0 || i >= len(p.options) {
		return fmt.Errorf("%w: %d", ErrOptionIndex, i)
	}
	p.options[i] = value
	return nil
}

func (p *PropertiesForm) RemoveOption(i int) error {
	if i < 0 || i >= len(p.options) {
		return fmt.Errorf("%w: %d", ErrOptionIndex, i)
	}
	p.options = append(p.options[:i], p.options[i+1:]...)
	return nil
}

// Blur validates the full draft against the kind's schema. On success the
// new instance is handed to the commit function exactly once; on failure a
// *SchemaError is returned and the instance is left untouched.
func (p *PropertiesForm) Blur() error {
	draft := make(map[string]any, len(p.draft)+1)
	for k, v := range p.draft {
		draft[k] = v
	}
	if p.inst.Kind == domain.FieldKindSelect {
		draft["options"] = p.options
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	attrs, err := domain.DecodeAttributes(p.inst.Kind, data)
	if err != nil {
		se := &SchemaError{Kind: p.inst.Kind, Fields: map[string]string{"_": err.Error()}}
		p.errs = se.Fields
		return se
	}
	attrs = NormalizeAttributes(attrs)
	if err := ValidateAttributes(attrs); err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			p.errs = se.Fields
		}
		return err
	}
	next, err := p.inst.WithAttributes(attrs)
	if err != nil {
		return err
	}
	p.inst = next
	p.reset()
	if p.commit != nil {
		p.commit(next.ID, next)
	}
	return nil
}

// Node renders the panel.
func (p *PropertiesForm) Node() *html.Node {
	if len(p.controls) == 0 {
		return view.El("form",
			view.Class("properties"),
			view.A("data-properties-for", p.inst.ID),
			view.El("p", view.Class("properties-empty"), "No properties for this element"),
		)
	}
	var rows []*html.Node
	if msg, ok := p.errs["_"]; ok {
		rows = append(rows, view.El("p", view.Class("property-error"), view.A("data-error-for", "_"), msg))
	}
	for _, c := range p.controls {
		rows = append(rows, p.controlNode(c))
	}
	return view.El("form",
		view.Class("properties"),
		view.A("data-properties-for", p.inst.ID),
		view.A("data-kind", string(p.inst.Kind)),
		rows,
	)
}

func (p *PropertiesForm) controlNode(c propertyControl) *html.Node {
	msg, invalid := p.errs[c.Name]
	var input *html.Node
	switch c.Type {
	case controlSwitch:
		checked, _ := p.draft[c.Name].(bool)
		input = view.El("input", view.A("type", "checkbox"), view.A("name", c.Name), view.When(checked, view.A("checked", "")))
	case controlNumber:
		input = view.El("input", view.A("type", "number"), view.A("name", c.Name), view.A("value", fmt.Sprint(p.draft[c.Name])))
	case controlTextarea:
		text, _ := p.draft[c.Name].(string)
		input = view.El("textarea", view.A("name", c.Name), view.A("rows", "5"), text)
	case controlOptions:
		var items []*html.Node
		for i, o := range p.options {
			items = append(items, view.El("li",
				view.El("input", view.A("type", "text"), view.A("name", fmt.Sprintf("options.%d", i)), view.A("value", o)),
				view.El("button", view.A("type", "button"), view.A("data-remove-option", strconv.Itoa(i)), "Remove"),
			))
		}
		input = view.El("div",
			view.El("ul", view.Class("options"), items),
			view.El("button", view.A("type", "button"), view.A("data-add-option", ""), "Add"),
		)
	default:
		text, _ := p.draft[c.Name].(string)
		input = view.El("input", view.A("type", "text"), view.A("name", c.Name), view.A("value", text))
	}
	var description, errNode *html.Node
	if c.Description != "" {
		description = view.El("p", view.Class("property-description"), c.Description)
	}
	if invalid {
		errNode = view.El("p", view.Class("property-error"), view.A("data-error-for", c.Name), msg)
	}
	return view.El("div",
		view.Class("property", invalidClass(invalid)),
		view.A("data-property", c.Name),
		view.El("label", c.Label),
		input,
		description,
		errNode,
	)
}
