package fields

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

var ErrInvalidDate = errors.New("invalid date")

// dateInputs are the accepted raw input layouts, in order of preference.
var dateInputs = []string{"2006-01-02", time.RFC3339, http.TimeFormat}

type dateElement struct{}

func (dateElement) Kind() domain.FieldKind { return domain.FieldKindDate }

func (dateElement) Palette() PaletteButton {
	return PaletteButton{Kind: domain.FieldKindDate, Label: "Date field", Icon: "calendar"}
}

func (dateElement) Construct(id string) domain.FieldInstance {
	return domain.NewFieldInstance(id, domain.DateAttributes{ChoiceAttributes: domain.ChoiceAttributes{
		Label:      "Date field",
		HelperText: "Pick a date",
	}})
}

func (dateElement) Validate(inst domain.FieldInstance, raw string) bool {
	return validateRequired(inst, raw)
}

// EncodeDate converts user input into the stored date value, an
// RFC 1123 timestamp in UTC such as "Tue, 02 Jan 2024 00:00:00 GMT".
// Empty input clears the value.
func EncodeDate(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	for _, layout := range dateInputs {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(http.TimeFormat), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// dateControlValue turns a stored value back into the yyyy-mm-dd form a
// date input expects.
func dateControlValue(stored string) string {
	t, err := time.Parse(http.TimeFormat, stored)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func displayDate(stored string) string {
	t, err := time.Parse(http.TimeFormat, stored)
	if err != nil {
		return ""
	}
	return t.Format("January 2, 2006")
}

func (e dateElement) RenderDesign(inst domain.FieldInstance) *html.Node {
	c := inst.Attributes.(domain.DateAttributes).Choice()
	return wrapper(inst, modeDesign,
		fieldLabel(inst.ID, c.Label, c.Required, false),
		view.El("button",
			view.Class("field-control", "date-picker"),
			view.A("type", "button"),
			view.A("disabled", ""),
			"Pick a date",
		),
		helperText(c.HelperText, false),
	)
}

func (e dateElement) RenderFill(inst domain.FieldInstance, props FillProps) *FillView {
	return newFillView(e, inst, props, EncodeDate, func(v *FillView) *html.Node {
		c := inst.Attributes.(domain.DateAttributes).Choice()
		shown := displayDate(v.Value())
		if shown == "" {
			shown = "Pick a date"
		}
		return wrapper(inst, modeFill,
			fieldLabel(inst.ID, c.Label, c.Required, v.Invalid()),
			view.El("input",
				controlAttrs(v, c.Required),
				view.A("type", "date"),
				view.A("value", dateControlValue(v.Value())),
			),
			view.El("span", view.A("data-role", "display"), view.Class("date-display"), shown),
			helperText(c.HelperText, v.Invalid()),
		)
	})
}

func (dateElement) RenderProperties(inst domain.FieldInstance, commit CommitFunc) *PropertiesForm {
	return newPropertiesForm(inst, commit, choiceControls())
}

func choiceControls() []propertyControl {
	return []propertyControl{
		{Name: "label", Label: "Label", Type: controlText, Description: "The label of the field. It will be displayed above the field."},
		{Name: "helperText", Label: "Helper text", Type: controlText, Description: "The helper text of the field. It will be displayed below the field."},
		{Name: "required", Label: "Required", Type: controlSwitch, Description: "Whether a value must be given before the form can be submitted."},
	}
}
