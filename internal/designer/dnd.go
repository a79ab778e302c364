package designer

import (
	"math"
	"time"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
)

// DragState is the state of the drag/drop controller.
type DragState int

const (
	StateIdle DragState = iota
	StatePending
	StateDragging
)

func (s DragState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDragging:
		return "dragging"
	}
	return "idle"
}

type PointerType int

const (
	PointerMouse PointerType = iota
	PointerTouch
)

type Point struct {
	X, Y float64
}

func (p Point) distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Source is what a drag session carries.
type Source interface {
	source()
}

// PaletteSource is a palette button; dropping it creates a new element.
type PaletteSource struct {
	Kind domain.FieldKind
}

// CanvasSource is an element already on the canvas.
type CanvasSource struct {
	ElementID string
}

func (PaletteSource) source() {}
func (CanvasSource) source()  {}

type TargetKind int

const (
	TargetCanvas TargetKind = iota
	TargetElementTop
	TargetElementBottom
)

// Target is a drop zone under the pointer.
type Target struct {
	Kind      TargetKind
	ElementID string
}

func CanvasTarget() *Target            { return &Target{Kind: TargetCanvas} }
func ElementTop(id string) *Target    { return &Target{Kind: TargetElementTop, ElementID: id} }
func ElementBottom(id string) *Target { return &Target{Kind: TargetElementBottom, ElementID: id} }

// Thresholds separate a click from a drag and a scroll from a touch drag.
type Thresholds struct {
	ActivationDistance float64
	TouchDelay         time.Duration
	TouchTolerance     float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{ActivationDistance: 10, TouchDelay: 300 * time.Millisecond, TouchTolerance: 5}
}

type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionInsert
	ActionMove
)

// Outcome reports what a finished pointer session did to the store.
type Outcome struct {
	Action    Action
	ElementID string
}

// Overlay describes what follows the pointer while dragging.
type Overlay struct {
	At      Point
	Palette *fields.PaletteButton
	Element *domain.FieldInstance
	Node    *html.Node
}

type dragSession struct {
	source    Source
	pointer   PointerType
	start     Point
	current   Point
	startedAt time.Time
	over      *Target
}

// Controller interprets pointer sessions as drag/drop mutations of a Store.
// Only one session exists at a time.
type Controller struct {
	store      *Store
	registry   *fields.Registry
	newID      func() string
	now        func() time.Time
	thresholds Thresholds

	state   DragState
	session *dragSession
}

func NewController(store *Store, registry *fields.Registry, newID func() string, thresholds Thresholds) *Controller {
	return &Controller{
		store:      store,
		registry:   registry,
		newID:      newID,
		now:        time.Now,
		thresholds: thresholds,
	}
}

// SetClock replaces the time source.
func (c *Controller) SetClock(now func() time.Time) { c.now = now }

func (c *Controller) State() DragState { return c.state }

// Source returns the payload of the active session.
func (c *Controller) Source() (Source, bool) {
	if c.session == nil {
		return nil, false
	}
	return c.session.source, true
}

// Over returns the drop target last reported under the pointer while dragging.
func (c *Controller) Over() *Target {
	if c.state != StateDragging {
		return nil
	}
	return c.session.over
}

// PointerDown starts a session. It is ignored while another session is active.
func (c *Controller) PointerDown(source Source, at Point, pointer PointerType) bool {
	if c.state != StateIdle || source == nil {
		return false
	}
	c.session = &dragSession{
		source:    source,
		pointer:   pointer,
		start:     at,
		current:   at,
		startedAt: c.now(),
	}
	c.state = StatePending
	return true
}

// PointerMove tracks the pointer and the target under it. A pending mouse
// session activates once it travels past ActivationDistance. A pending touch
// session activates once TouchDelay has elapsed; moving beyond TouchTolerance
// before that is a scroll and ends the session.
func (c *Controller) PointerMove(at Point, over *Target) {
	if c.session == nil {
		return
	}
	s := c.session
	s.current = at
	s.over = over
	if c.state != StatePending {
		return
	}
	moved := s.start.distance(at)
	switch s.pointer {
	case PointerTouch:
		held := c.now().Sub(s.startedAt) >= c.thresholds.TouchDelay
		switch {
		case held:
			c.state = StateDragging
		case moved > c.thresholds.TouchTolerance:
			c.reset()
		}
	default:
		if moved > c.thresholds.ActivationDistance {
			c.state = StateDragging
		}
	}
}

// PointerUp ends the session over target, which may be nil.
func (c *Controller) PointerUp(target *Target) Outcome {
	if c.session == nil {
		return Outcome{}
	}
	s, state := c.session, c.state
	c.reset()

	if state == StatePending {
		if src, ok := s.source.(CanvasSource); ok {
			c.store.SetSelection(src.ElementID)
			return Outcome{Action: ActionSelect, ElementID: src.ElementID}
		}
		return Outcome{}
	}
	if target == nil {
		return Outcome{}
	}
	switch src := s.source.(type) {
	case PaletteSource:
		return c.dropPalette(src)
	case CanvasSource:
		return c.dropCanvas(src, *target)
	}
	return Outcome{}
}

// Cancel ends the session without mutating anything.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.session = nil
}

// New elements are always prepended, whatever the target.
func (c *Controller) dropPalette(src PaletteSource) Outcome {
	inst, err := c.registry.Construct(src.Kind, c.newID())
	if err != nil {
		return Outcome{}
	}
	c.store.AddElement(0, inst)
	return Outcome{Action: ActionInsert, ElementID: inst.ID}
}

func (c *Controller) dropCanvas(src CanvasSource, target Target) Outcome {
	if target.Kind == TargetCanvas || target.ElementID == src.ElementID {
		return Outcome{}
	}
	dragged, ok := c.store.Element(src.ElementID)
	if !ok {
		return Outcome{}
	}
	if _, ok := c.store.Element(target.ElementID); !ok {
		return Outcome{}
	}
	selected, hadSelection := c.store.Selection()

	c.store.RemoveElement(src.ElementID)
	index := c.store.elements.Find(target.ElementID)
	if target.Kind == TargetElementBottom {
		index++
	}
	c.store.AddElement(index, dragged)

	if hadSelection && selected == src.ElementID {
		c.store.SetSelection(src.ElementID)
	}
	return Outcome{Action: ActionMove, ElementID: src.ElementID}
}

// IsDragging reports whether the element with id is the active drag payload.
func (c *Controller) IsDragging(id string) bool {
	if c.state != StateDragging {
		return false
	}
	src, ok := c.session.source.(CanvasSource)
	return ok && src.ElementID == id
}

// Overlay returns the drag overlay, or nil when nothing is being dragged.
func (c *Controller) Overlay() *Overlay {
	if c.state != StateDragging {
		return nil
	}
	o := &Overlay{At: c.session.current}
	switch src := c.session.source.(type) {
	case PaletteSource:
		el, err := c.registry.Lookup(src.Kind)
		if err != nil {
			return nil
		}
		btn := el.Palette()
		o.Palette = &btn
		o.Node = paletteButtonNode(btn, true)
	case CanvasSource:
		inst, ok := c.store.Element(src.ElementID)
		if !ok {
			return nil
		}
		o.Element = &inst
		o.Node = c.registry.RenderDesign(inst)
	}
	return o
}
