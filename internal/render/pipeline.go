// Package render turns an ordered field list into the design canvas, a live
// fill form or a read-only view by dispatching each instance to the field
// registry.
package render

import (
	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/view"
)

// DesignState is the per-render designer state the canvas reflects.
type DesignState struct {
	Selected   string
	Hovered    string
	Dragging   func(id string) bool
	DropTop    string // element whose upper half is under a drag
	DropBottom string
	DropCanvas bool
}

func (s DesignState) dragging(id string) bool {
	return s.Dragging != nil && s.Dragging(id)
}

type Pipeline struct {
	registry *fields.Registry
}

func New(registry *fields.Registry) *Pipeline {
	return &Pipeline{registry: registry}
}

func (p *Pipeline) Registry() *fields.Registry { return p.registry }

// Design renders the editing canvas. Every element sits in a selectable,
// deletable wrapper with upper and lower half drop targets.
func (p *Pipeline) Design(elements domain.FormDefinition, state DesignState) *html.Node {
	canvas := view.El("div",
		view.Class("designer-canvas", classIf(state.DropCanvas, "drop-active")),
		view.A("data-drop-target", "canvas"),
	)
	if len(elements) == 0 {
		canvas.AppendChild(view.El("p", view.Class("drop-placeholder"), "Drop here"))
		return canvas
	}
	for _, inst := range elements {
		canvas.AppendChild(p.designWrapper(inst, state))
	}
	return canvas
}

func (p *Pipeline) designWrapper(inst domain.FieldInstance, state DesignState) *html.Node {
	dragging := state.dragging(inst.ID)
	var affordances []*html.Node
	if state.Hovered == inst.ID && !dragging {
		affordances = append(affordances,
			view.El("div", view.Class("element-actions"),
				view.El("button", view.A("type", "button"), view.A("data-delete", inst.ID), "Delete"),
			),
			view.El("p", view.Class("element-hint"), "Click for properties or drag to move"),
		)
	}
	var topIndicator, bottomIndicator *html.Node
	if state.DropTop == inst.ID {
		topIndicator = view.El("div", view.Class("drop-indicator", "drop-indicator-top"))
	}
	if state.DropBottom == inst.ID {
		bottomIndicator = view.El("div", view.Class("drop-indicator", "drop-indicator-bottom"))
	}
	return view.El("div",
		view.Class("designer-element", classIf(state.Selected == inst.ID, "selected"), classIf(dragging, "dragging")),
		view.A("data-element-id", inst.ID),
		view.A("data-select", inst.ID),
		view.El("div", view.Class("drop-half", "drop-top"), view.A("data-drop-target", "top"), view.A("data-target-id", inst.ID)),
		view.El("div", view.Class("drop-half", "drop-bottom"), view.A("data-drop-target", "bottom"), view.A("data-target-id", inst.ID)),
		affordances,
		topIndicator,
		view.El("div", view.Class("element-body"), p.registry.RenderDesign(inst)),
		bottomIndicator,
	)
}

// ViewOnly renders the fields with the given values and every control
// disabled. It is used for previews and past submissions.
func (p *Pipeline) ViewOnly(elements domain.FormDefinition, values domain.SubmissionValues) *html.Node {
	root := view.El("div", view.Class("form-view", "read-only"))
	for _, inst := range elements {
		v, err := p.registry.RenderFill(inst, fields.FillProps{DefaultValue: values[inst.ID], Disabled: true})
		if err != nil {
			root.AppendChild(p.registry.RenderDesign(inst))
			continue
		}
		root.AppendChild(v.Node())
	}
	return root
}

func classIf(cond bool, name string) string {
	if cond {
		return name
	}
	return ""
}
