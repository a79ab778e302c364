package fields

import (
	"fmt"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/view"
)

// layoutElement implements the presentational kinds. They never carry a
// value, so validation always passes and their fill views ignore edits.
type layoutElement struct {
	kind     domain.FieldKind
	palette  PaletteButton
	defaults func() domain.Attributes
	content  func(domain.Attributes) *html.Node
	controls []propertyControl
}

func newTitleElement() layoutElement {
	return layoutElement{
		kind:    domain.FieldKindTitle,
		palette: PaletteButton{Kind: domain.FieldKindTitle, Label: "Title field", Icon: "heading-1"},
		defaults: func() domain.Attributes {
			return domain.TitleAttributes{Title: "Title field"}
		},
		content: func(a domain.Attributes) *html.Node {
			return view.El("h2", view.Class("field-title"), a.(domain.TitleAttributes).Title)
		},
		controls: []propertyControl{{Name: "title", Label: "Title", Type: controlText}},
	}
}

func newSubTitleElement() layoutElement {
	return layoutElement{
		kind:    domain.FieldKindSubTitle,
		palette: PaletteButton{Kind: domain.FieldKindSubTitle, Label: "SubTitle field", Icon: "heading-2"},
		defaults: func() domain.Attributes {
			return domain.SubTitleAttributes{SubTitle: "SubTitle field"}
		},
		content: func(a domain.Attributes) *html.Node {
			return view.El("h3", view.Class("field-subtitle"), a.(domain.SubTitleAttributes).SubTitle)
		},
		controls: []propertyControl{{Name: "subTitle", Label: "SubTitle", Type: controlText}},
	}
}

func newParagraphElement() layoutElement {
	return layoutElement{
		kind:    domain.FieldKindParagraph,
		palette: PaletteButton{Kind: domain.FieldKindParagraph, Label: "Paragraph field", Icon: "text-paragraph"},
		defaults: func() domain.Attributes {
			return domain.ParagraphAttributes{Text: "Text here"}
		},
		content: func(a domain.Attributes) *html.Node {
			return view.El("p", view.Class("field-paragraph"), a.(domain.ParagraphAttributes).Text)
		},
		controls: []propertyControl{{Name: "text", Label: "Text", Type: controlTextarea}},
	}
}

func newSeparatorElement() layoutElement {
	return layoutElement{
		kind:    domain.FieldKindSeparator,
		palette: PaletteButton{Kind: domain.FieldKindSeparator, Label: "Separator field", Icon: "separator"},
		defaults: func() domain.Attributes {
			return domain.SeparatorAttributes{}
		},
		content: func(domain.Attributes) *html.Node {
			return view.El("hr", view.Class("field-separator"))
		},
	}
}

func newSpacerElement() layoutElement {
	return layoutElement{
		kind:    domain.FieldKindSpacer,
		palette: PaletteButton{Kind: domain.FieldKindSpacer, Label: "Spacer field", Icon: "separator-horizontal"},
		defaults: func() domain.Attributes {
			return domain.SpacerAttributes{Height: 20}
		},
		content: func(a domain.Attributes) *html.Node {
			h := a.(domain.SpacerAttributes).Height
			return view.El("div", view.Class("field-spacer"), view.A("style", fmt.Sprintf("height: %dpx; width: 100%%", h)))
		},
		controls: []propertyControl{{Name: "height", Label: "Height (px)", Type: controlNumber, Description: "Between 5 and 200 pixels."}},
	}
}

func (e layoutElement) Kind() domain.FieldKind { return e.kind }

func (e layoutElement) Palette() PaletteButton { return e.palette }

func (e layoutElement) Construct(id string) domain.FieldInstance {
	return domain.NewFieldInstance(id, e.defaults())
}

func (e layoutElement) Validate(inst domain.FieldInstance, raw string) bool {
	return alwaysValid(inst, raw)
}

// designCaption is the small kind label shown above layout content on the canvas.
func (e layoutElement) designCaption(inst domain.FieldInstance) string {
	if s, ok := inst.Attributes.(domain.SpacerAttributes); ok {
		return fmt.Sprintf("Spacer field: %dpx", s.Height)
	}
	return e.palette.Label
}

func (e layoutElement) RenderDesign(inst domain.FieldInstance) *html.Node {
	return wrapper(inst, modeDesign,
		view.El("label", view.A("data-role", "label"), view.Class("field-label", "field-caption"), e.designCaption(inst)),
		e.content(inst.Attributes),
	)
}

func (e layoutElement) RenderFill(inst domain.FieldInstance, props FillProps) *FillView {
	props.OnChange = nil
	return newFillView(e, inst, props, nil, func(*FillView) *html.Node {
		return wrapper(inst, modeFill, e.content(inst.Attributes))
	})
}

func (e layoutElement) RenderProperties(inst domain.FieldInstance, commit CommitFunc) *PropertiesForm {
	return newPropertiesForm(inst, commit, e.controls)
}
