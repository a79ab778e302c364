package fields

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

type checkboxElement struct{}

func (checkboxElement) Kind() domain.FieldKind { return domain.FieldKindCheckbox }

func (checkboxElement) Palette() PaletteButton {
	return PaletteButton{Kind: domain.FieldKindCheckbox, Label: "CheckBox field", Icon: "checkbox"}
}

func (checkboxElement) Construct(id string) domain.FieldInstance {
	return domain.NewFieldInstance(id, domain.CheckboxAttributes{ChoiceAttributes: domain.ChoiceAttributes{
		Label:      "Checkbox field",
		HelperText: "Helper text",
	}})
}

// Validate requires the literal "true" when the field is required, so an
// explicitly unchecked box fails just like an untouched one.
func (checkboxElement) Validate(inst domain.FieldInstance, raw string) bool {
	if inst.Required() {
		return raw == "true"
	}
	return true
}

// encodeCheckbox maps the checked state reported by the control to "true" or "false".
func encodeCheckbox(raw string) (string, error) {
	switch strings.ToLower(raw) {
	case "on":
		return "true", nil
	case "", "off":
		return "false", nil
	}
	checked, err := strconv.ParseBool(raw)
	if err != nil {
		return "", fmt.Errorf("checkbox value %q: %w", raw, err)
	}
	return strconv.FormatBool(checked), nil
}

func (checkboxElement) RenderDesign(inst domain.FieldInstance) *html.Node {
	c := inst.Attributes.(domain.CheckboxAttributes).Choice()
	return wrapper(inst, modeDesign,
		view.El("input",
			view.Class("field-control"),
			view.A("type", "checkbox"),
			view.A("disabled", ""),
		),
		fieldLabel(inst.ID, c.Label, c.Required, false),
		helperText(c.HelperText, false),
	)
}

func (e checkboxElement) RenderFill(inst domain.FieldInstance, props FillProps) *FillView {
	return newFillView(e, inst, props, encodeCheckbox, func(v *FillView) *html.Node {
		c := inst.Attributes.(domain.CheckboxAttributes).Choice()
		return wrapper(inst, modeFill,
			view.El("input",
				controlAttrs(v, c.Required),
				view.A("type", "checkbox"),
				view.A("value", "true"),
				view.When(v.Value() == "true", view.A("checked", "")),
			),
			fieldLabel(inst.ID, c.Label, c.Required, v.Invalid()),
			helperText(c.HelperText, v.Invalid()),
		)
	})
}

func (checkboxElement) RenderProperties(inst domain.FieldInstance, commit CommitFunc) *PropertiesForm {
	return newPropertiesForm(inst, commit, choiceControls())
}
