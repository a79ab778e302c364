package designer

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/render"
	"formbuilder/internal/view"
)

// Session is one form editing session. It is created when the editor opens
// a form and dropped when the editor closes; nothing in it is shared.
type Session struct {
	FormID   string
	Store    *Store
	DnD      *Controller
	registry *fields.Registry
	pipeline *render.Pipeline
	hovered  string
}

type Option func(*sessionOptions)

type sessionOptions struct {
	newID      func() string
	thresholds Thresholds
	now        func() time.Time
}

func WithIDGenerator(fn func() string) Option {
	return func(o *sessionOptions) { o.newID = fn }
}

func WithThresholds(t Thresholds) Option {
	return func(o *sessionOptions) { o.thresholds = t }
}

func WithClock(now func() time.Time) Option {
	return func(o *sessionOptions) { o.now = now }
}

func NewSession(formID string, def domain.FormDefinition, registry *fields.Registry, opts ...Option) *Session {
	o := sessionOptions{newID: uuid.NewString, thresholds: DefaultThresholds(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	store := NewStore(def)
	dnd := NewController(store, registry, o.newID, o.thresholds)
	dnd.SetClock(o.now)
	return &Session{
		FormID:   formID,
		Store:    store,
		DnD:      dnd,
		registry: registry,
		pipeline: render.New(registry),
	}
}

func (s *Session) Registry() *fields.Registry { return s.registry }

// Hover records the element under the pointer for hover affordances.
func (s *Session) Hover(id string) { s.hovered = id }

// ClickBackground clears the selection.
func (s *Session) ClickBackground() { s.Store.ClearSelection() }

// Delete removes an element through its delete affordance.
func (s *Session) Delete(id string) bool {
	if s.hovered == id {
		s.hovered = ""
	}
	return s.Store.RemoveElement(id)
}

// Insert places a new element of kind at index. It is the keyboard and
// programmatic counterpart of a palette drop.
func (s *Session) Insert(kind domain.FieldKind, index int) (domain.FieldInstance, error) {
	inst, err := s.registry.Construct(kind, s.DnD.newID())
	if err != nil {
		return domain.FieldInstance{}, err
	}
	s.Store.AddElement(index, inst)
	return inst, nil
}

// Move reinserts element id before (or, with below, after) target. It is the
// programmatic counterpart of a canvas drag and follows the same rules.
func (s *Session) Move(id, target string, below bool) bool {
	t := ElementTop(target)
	if below {
		t = ElementBottom(target)
	}
	return s.DnD.dropCanvas(CanvasSource{ElementID: id}, *t).Action == ActionMove
}

// Properties opens the properties panel of the selected element. Its
// commits update the store.
func (s *Session) Properties() (*fields.PropertiesForm, bool) {
	inst, ok := s.Store.SelectedElement()
	if !ok {
		return nil, false
	}
	form, err := s.registry.RenderProperties(inst, func(id string, next domain.FieldInstance) {
		s.Store.UpdateElement(id, next)
	})
	if err != nil {
		return nil, false
	}
	return form, true
}

// Sidebar renders the palette of draggable buttons, or the properties panel
// when an element is selected.
func (s *Session) Sidebar() *html.Node {
	if form, ok := s.Properties(); ok {
		return view.El("aside", view.Class("designer-sidebar", "properties-sidebar"),
			view.El("div", view.Class("sidebar-header"),
				view.El("p", "Element properties"),
				view.El("button", view.A("type", "button"), view.A("data-close-properties", ""), "Close"),
			),
			form.Node(),
		)
	}
	var layout, inputs []*html.Node
	for _, btn := range s.registry.Palette() {
		if btn.Kind.IsLayout() {
			layout = append(layout, paletteButtonNode(btn, false))
		} else {
			inputs = append(inputs, paletteButtonNode(btn, false))
		}
	}
	return view.El("aside", view.Class("designer-sidebar"),
		view.El("p", "Drag and drop elements"),
		view.El("h4", "Layout elements"),
		view.El("div", view.Class("palette"), layout),
		view.El("h4", "Form elements"),
		view.El("div", view.Class("palette"), inputs),
	)
}

// Canvas renders the editing canvas from the current store and drag state.
func (s *Session) Canvas() *html.Node {
	state := render.DesignState{Hovered: s.hovered, Dragging: s.DnD.IsDragging}
	if id, ok := s.Store.Selection(); ok {
		state.Selected = id
	}
	if over := s.DnD.Over(); over != nil {
		switch over.Kind {
		case TargetElementTop:
			state.DropTop = over.ElementID
		case TargetElementBottom:
			state.DropBottom = over.ElementID
		case TargetCanvas:
			state.DropCanvas = true
		}
	}
	return s.pipeline.Design(s.Store.Elements(), state)
}

// Preview renders the current definition read-only, as a respondent would see it.
func (s *Session) Preview() *html.Node {
	return s.pipeline.ViewOnly(s.Store.Elements(), nil)
}

func paletteButtonNode(btn fields.PaletteButton, overlay bool) *html.Node {
	return view.El("button",
		view.Class("palette-button", classIf(overlay, "drag-overlay")),
		view.A("type", "button"),
		view.A("data-palette-kind", string(btn.Kind)),
		view.El("span", view.Class("icon", "icon-"+btn.Icon)),
		view.El("span", btn.Label),
	)
}

func classIf(cond bool, name string) string {
	if cond {
		return name
	}
	return ""
}
