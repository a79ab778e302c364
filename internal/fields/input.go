package fields

import (
	"strconv"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

// inputElement implements the single value, free-text kinds: text, number,
// email and textarea. They differ only in control and defaults.
type inputElement struct {
	kind     domain.FieldKind
	palette  PaletteButton
	control  string // input type, or "textarea"
	defaults func() domain.Attributes
}

func inputOf(a domain.Attributes) domain.InputAttributes {
	if in, ok := a.(interface{ Input() domain.InputAttributes }); ok {
		return in.Input()
	}
	return domain.InputAttributes{}
}

func rowsOf(a domain.Attributes) int {
	if t, ok := a.(domain.TextareaAttributes); ok && t.Rows > 0 {
		return t.Rows
	}
	return 3
}

func newTextElement() inputElement {
	return inputElement{
		kind:    domain.FieldKindText,
		palette: PaletteButton{Kind: domain.FieldKindText, Label: "Text field", Icon: "text-fields"},
		control: "text",
		defaults: func() domain.Attributes {
			return domain.TextAttributes{InputAttributes: defaultInput("Text field", "Value here...")}
		},
	}
}

func newNumberElement() inputElement {
	return inputElement{
		kind:    domain.FieldKindNumber,
		palette: PaletteButton{Kind: domain.FieldKindNumber, Label: "Number field", Icon: "number"},
		control: "number",
		defaults: func() domain.Attributes {
			return domain.NumberAttributes{InputAttributes: defaultInput("Number field", "0")}
		},
	}
}

func newEmailElement() inputElement {
	return inputElement{
		kind:    domain.FieldKindEmail,
		palette: PaletteButton{Kind: domain.FieldKindEmail, Label: "Email field", Icon: "mail"},
		control: "email",
		defaults: func() domain.Attributes {
			return domain.EmailAttributes{InputAttributes: defaultInput("Email field", "you@example.com")}
		},
	}
}

func newTextareaElement() inputElement {
	return inputElement{
		kind:    domain.FieldKindTextarea,
		palette: PaletteButton{Kind: domain.FieldKindTextarea, Label: "TextArea field", Icon: "textarea-resize"},
		control: "textarea",
		defaults: func() domain.Attributes {
			return domain.TextareaAttributes{InputAttributes: defaultInput("Text area", "Value here..."), Rows: 3}
		},
	}
}

func defaultInput(label, placeholder string) domain.InputAttributes {
	return domain.InputAttributes{
		Label:       label,
		HelperText:  "Helper text",
		Required:    false,
		Placeholder: placeholder,
	}
}

func (e inputElement) Kind() domain.FieldKind { return e.kind }

func (e inputElement) Palette() PaletteButton { return e.palette }

func (e inputElement) Construct(id string) domain.FieldInstance {
	return domain.NewFieldInstance(id, e.defaults())
}

func (e inputElement) Validate(inst domain.FieldInstance, raw string) bool {
	return validateRequired(inst, raw)
}

func (e inputElement) RenderDesign(inst domain.FieldInstance) *html.Node {
	in := inputOf(inst.Attributes)
	var control *html.Node
	if e.control == "textarea" {
		control = view.El("textarea",
			view.Class("field-control"),
			view.A("rows", strconv.Itoa(rowsOf(inst.Attributes))),
			view.A("placeholder", in.Placeholder),
			view.A("readonly", ""),
			view.A("disabled", ""),
		)
	} else {
		control = view.El("input",
			view.Class("field-control"),
			view.A("type", e.control),
			view.A("placeholder", in.Placeholder),
			view.A("readonly", ""),
			view.A("disabled", ""),
		)
	}
	return wrapper(inst, modeDesign,
		fieldLabel(inst.ID, in.Label, in.Required, false),
		control,
		helperText(in.HelperText, false),
	)
}

func (e inputElement) RenderFill(inst domain.FieldInstance, props FillProps) *FillView {
	return newFillView(e, inst, props, passthrough, func(v *FillView) *html.Node {
		in := inputOf(inst.Attributes)
		attrs := controlAttrs(v, in.Required)
		var control *html.Node
		if e.control == "textarea" {
			control = view.El("textarea",
				attrs,
				view.A("rows", strconv.Itoa(rowsOf(inst.Attributes))),
				view.A("placeholder", in.Placeholder),
				v.Value(),
			)
		} else {
			control = view.El("input",
				attrs,
				view.A("type", e.control),
				view.A("placeholder", in.Placeholder),
				view.A("value", v.Value()),
			)
		}
		return wrapper(inst, modeFill,
			fieldLabel(inst.ID, in.Label, in.Required, v.Invalid()),
			control,
			helperText(in.HelperText, v.Invalid()),
		)
	})
}

func (e inputElement) RenderProperties(inst domain.FieldInstance, commit CommitFunc) *PropertiesForm {
	controls := inputControls()
	if e.control == "textarea" {
		controls = append(controls, propertyControl{
			Name:        "rows",
			Label:       "Rows",
			Type:        controlNumber,
			Description: "Number of visible text lines.",
		})
	}
	return newPropertiesForm(inst, commit, controls)
}

func inputControls() []propertyControl {
	return []propertyControl{
		{Name: "label", Label: "Label", Type: controlText, Description: "The label of the field. It will be displayed above the field."},
		{Name: "placeholder", Label: "Placeholder", Type: controlText, Description: "The placeholder of the field."},
		{Name: "helperText", Label: "Helper text", Type: controlText, Description: "The helper text of the field. It will be displayed below the field."},
		{Name: "required", Label: "Required", Type: controlSwitch, Description: "Whether a value must be given before the form can be submitted."},
	}
}
