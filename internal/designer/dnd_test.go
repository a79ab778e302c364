package designer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession(t *testing.T, ids ...string) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	n := 0
	var def domain.FormDefinition
	for _, id := range ids {
		def = append(def, title(id, "Title "+id))
	}
	s := NewSession("form-1", def, fields.NewRegistry(),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("new-%d", n) }),
		WithClock(clock.now),
	)
	return s, clock
}

// drag runs a full mouse drag from a canvas element onto target.
func drag(c *Controller, id string, target *Target) Outcome {
	c.PointerDown(CanvasSource{ElementID: id}, Point{}, PointerMouse)
	c.PointerMove(Point{X: 50, Y: 50}, target)
	return c.PointerUp(target)
}

func TestReorder_LowerHalfPlacesAfter(t *testing.T) {
	s, _ := newTestSession(t, "A", "B", "C")
	out := drag(s.DnD, "A", ElementBottom("B"))
	assert.Equal(t, Outcome{Action: ActionMove, ElementID: "A"}, out)
	assert.Equal(t, []string{"B", "A", "C"}, s.Store.Elements().IDs())
}

func TestReorder_UpperHalfPlacesBefore(t *testing.T) {
	s, _ := newTestSession(t, "A", "B", "C")
	drag(s.DnD, "C", ElementTop("B"))
	assert.Equal(t, []string{"A", "C", "B"}, s.Store.Elements().IDs())

	drag(s.DnD, "A", ElementTop("B"))
	assert.Equal(t, []string{"C", "A", "B"}, s.Store.Elements().IDs())
}

func TestReorder_NoMutationCases(t *testing.T) {
	for name, target := range map[string]*Target{
		"no target":   nil,
		"background":  CanvasTarget(),
		"onto itself": ElementBottom("B"),
		"stale id":    ElementTop("ghost"),
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestSession(t, "A", "B", "C")
			out := drag(s.DnD, "B", target)
			assert.Equal(t, ActionNone, out.Action)
			assert.Equal(t, []string{"A", "B", "C"}, s.Store.Elements().IDs())
			assert.Equal(t, StateIdle, s.DnD.State())
		})
	}
}

func TestReorder_KeepsSelectionOfMovedElement(t *testing.T) {
	s, _ := newTestSession(t, "A", "B")
	s.Store.SetSelection("A")
	drag(s.DnD, "A", ElementBottom("B"))
	id, ok := s.Store.Selection()
	assert.True(t, ok)
	assert.Equal(t, "A", id)
}

func TestPaletteDrop_AlwaysPrepends(t *testing.T) {
	for _, target := range []*Target{CanvasTarget(), ElementBottom("B"), ElementTop("A")} {
		s, _ := newTestSession(t, "A", "B")
		s.Store.SetSelection("B")

		s.DnD.PointerDown(PaletteSource{Kind: domain.FieldKindText}, Point{}, PointerMouse)
		s.DnD.PointerMove(Point{X: 30}, target)
		out := s.DnD.PointerUp(target)

		assert.Equal(t, Outcome{Action: ActionInsert, ElementID: "new-1"}, out)
		assert.Equal(t, []string{"new-1", "A", "B"}, s.Store.Elements().IDs())
		inst, _ := s.Store.Element("new-1")
		assert.Equal(t, domain.FieldKindText, inst.Kind)
		sel, _ := s.Store.Selection()
		assert.Equal(t, "B", sel, "selection unchanged")
	}
}

func TestPaletteDrop_OutsideCanvasDoesNothing(t *testing.T) {
	s, _ := newTestSession(t, "A")
	s.DnD.PointerDown(PaletteSource{Kind: domain.FieldKindText}, Point{}, PointerMouse)
	s.DnD.PointerMove(Point{X: 30}, nil)
	assert.Equal(t, ActionNone, s.DnD.PointerUp(nil).Action)
	assert.Equal(t, 1, s.Store.Len())
}

func TestMouse_ShortMoveIsAClick(t *testing.T) {
	s, _ := newTestSession(t, "A", "B")
	s.DnD.PointerDown(CanvasSource{ElementID: "B"}, Point{X: 1, Y: 1}, PointerMouse)
	s.DnD.PointerMove(Point{X: 5, Y: 5}, ElementTop("A"))
	assert.Equal(t, StatePending, s.DnD.State())

	out := s.DnD.PointerUp(ElementTop("A"))
	assert.Equal(t, Outcome{Action: ActionSelect, ElementID: "B"}, out)
	assert.Equal(t, []string{"A", "B"}, s.Store.Elements().IDs())
	id, _ := s.Store.Selection()
	assert.Equal(t, "B", id)
}

func TestTouch_RequiresPressDuration(t *testing.T) {
	s, clock := newTestSession(t, "A", "B")

	s.DnD.PointerDown(CanvasSource{ElementID: "A"}, Point{}, PointerTouch)
	s.DnD.PointerMove(Point{X: 3}, nil)
	assert.Equal(t, StatePending, s.DnD.State(), "within tolerance before delay")

	clock.advance(300 * time.Millisecond)
	s.DnD.PointerMove(Point{X: 40}, ElementBottom("B"))
	assert.Equal(t, StateDragging, s.DnD.State())
	assert.True(t, s.DnD.IsDragging("A"))
	assert.False(t, s.DnD.IsDragging("B"))

	s.DnD.PointerUp(ElementBottom("B"))
	assert.Equal(t, []string{"B", "A"}, s.Store.Elements().IDs())
}

func TestTouch_EarlyMoveIsAScroll(t *testing.T) {
	s, clock := newTestSession(t, "A", "B")
	s.DnD.PointerDown(CanvasSource{ElementID: "A"}, Point{}, PointerTouch)
	clock.advance(100 * time.Millisecond)
	s.DnD.PointerMove(Point{Y: 20}, nil)
	assert.Equal(t, StateIdle, s.DnD.State())
	assert.Equal(t, ActionNone, s.DnD.PointerUp(ElementBottom("B")).Action)
	assert.Equal(t, []string{"A", "B"}, s.Store.Elements().IDs())
}

func TestPointerDown_IgnoredWhileActive(t *testing.T) {
	s, _ := newTestSession(t, "A", "B")
	require.True(t, s.DnD.PointerDown(CanvasSource{ElementID: "A"}, Point{}, PointerMouse))
	assert.False(t, s.DnD.PointerDown(CanvasSource{ElementID: "B"}, Point{}, PointerMouse))
	src, _ := s.DnD.Source()
	assert.Equal(t, CanvasSource{ElementID: "A"}, src)
}

func TestCancel_NoMutation(t *testing.T) {
	s, _ := newTestSession(t, "A", "B")
	s.DnD.PointerDown(CanvasSource{ElementID: "A"}, Point{}, PointerMouse)
	s.DnD.PointerMove(Point{X: 100}, ElementBottom("B"))
	s.DnD.Cancel()
	assert.Equal(t, StateIdle, s.DnD.State())
	assert.Equal(t, ActionNone, s.DnD.PointerUp(ElementBottom("B")).Action)
	assert.Equal(t, []string{"A", "B"}, s.Store.Elements().IDs())
}

func TestOverlay(t *testing.T) {
	s, _ := newTestSession(t, "A")
	assert.Nil(t, s.DnD.Overlay())

	s.DnD.PointerDown(PaletteSource{Kind: domain.FieldKindSpacer}, Point{}, PointerMouse)
	s.DnD.PointerMove(Point{X: 20, Y: 20}, nil)
	o := s.DnD.Overlay()
	require.NotNil(t, o)
	require.NotNil(t, o.Palette)
	assert.Equal(t, "Spacer field", o.Palette.Label)
	assert.Equal(t, Point{X: 20, Y: 20}, o.At)
	s.DnD.Cancel()

	s.DnD.PointerDown(CanvasSource{ElementID: "A"}, Point{}, PointerMouse)
	s.DnD.PointerMove(Point{X: 20, Y: 20}, nil)
	o = s.DnD.Overlay()
	require.NotNil(t, o)
	require.NotNil(t, o.Element)
	assert.Equal(t, "A", o.Element.ID)
	assert.NotNil(t, o.Node)
}
