package fields

import (
	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

const (
	modeDesign = "design"
	modeFill   = "fill"

	classInvalid = "is-invalid"
)

func wrapper(inst domain.FieldInstance, mode string, children ...any) *html.Node {
	parts := []any{
		view.Class("field", "field-"+mode),
		view.A("data-field-id", inst.ID),
		view.A("data-kind", string(inst.Kind)),
	}
	return view.El("div", append(parts, children...)...)
}

func invalidClass(invalid bool) string {
	if invalid {
		return classInvalid
	}
	return ""
}

func fieldLabel(id, text string, required, invalid bool) *html.Node {
	var mark any
	if required {
		mark = view.El("span", view.Class("required-mark"), "*")
	}
	return view.El("label",
		view.A("for", id),
		view.A("data-role", "label"),
		view.Class("field-label", invalidClass(invalid)),
		text,
		mark,
	)
}

func helperText(text string, invalid bool) *html.Node {
	if text == "" {
		return nil
	}
	return view.El("p",
		view.A("data-role", "helper"),
		view.Class("helper-text", invalidClass(invalid)),
		text,
	)
}

// controlAttrs are the attributes shared by every live fill control.
func controlAttrs(v *FillView, required bool) []view.Attr {
	attrs := []view.Attr{
		view.A("id", v.ID()),
		view.A("name", v.ID()),
		view.A("data-role", "control"),
		view.Class("field-control", invalidClass(v.Invalid())),
	}
	if required {
		attrs = append(attrs, view.A("required", ""))
	}
	if v.Disabled() {
		attrs = append(attrs, view.A("disabled", ""))
	}
	if v.Invalid() {
		attrs = append(attrs, view.A("aria-invalid", "true"))
	}
	return attrs
}

func validateRequired(inst domain.FieldInstance, raw string) bool {
	return !inst.Required() || raw != ""
}

func passthrough(raw string) (string, error) { return raw, nil }

func alwaysValid(domain.FieldInstance, string) bool { return true }
