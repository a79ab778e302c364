package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/view"
)

func newPipeline() *Pipeline { return New(fields.NewRegistry()) }

func construct(t *testing.T, p *Pipeline, kind domain.FieldKind, id string) domain.FieldInstance {
	t.Helper()
	inst, err := p.Registry().Construct(kind, id)
	require.NoError(t, err)
	return inst
}

func TestDesign_EmptyCanvasShowsPlaceholder(t *testing.T) {
	p := newPipeline()
	n := p.Design(nil, DesignState{})
	assert.Contains(t, view.TextContent(n), "Drop here")
}

func TestDesign_WrapsEveryElement(t *testing.T) {
	p := newPipeline()
	def := domain.FormDefinition{
		construct(t, p, domain.FieldKindTitle, "a"),
		construct(t, p, domain.FieldKindText, "b"),
	}
	n := p.Design(def, DesignState{Selected: "b"})

	wrappers := view.FindAll(n, view.HasAttr("data-element-id"))
	require.Len(t, wrappers, 2)
	cls, _ := view.GetAttr(wrappers[1], "class")
	assert.Contains(t, cls, "selected")
	assert.Len(t, view.FindAll(n, view.ByAttr("data-target-id", "a")), 2)
}

func TestDesign_HoverAffordancesHiddenWhileDragging(t *testing.T) {
	p := newPipeline()
	def := domain.FormDefinition{construct(t, p, domain.FieldKindText, "a")}

	hovered := p.Design(def, DesignState{Hovered: "a"})
	assert.NotNil(t, view.Find(hovered, view.ByAttr("data-delete", "a")))

	dragging := p.Design(def, DesignState{Hovered: "a", Dragging: func(id string) bool { return id == "a" }})
	assert.Nil(t, view.Find(dragging, view.ByAttr("data-delete", "a")))
}

func TestViewOnly_DisablesControls(t *testing.T) {
	p := newPipeline()
	def := domain.FormDefinition{
		construct(t, p, domain.FieldKindText, "name"),
		construct(t, p, domain.FieldKindCheckbox, "agree"),
	}
	n := p.ViewOnly(def, domain.SubmissionValues{"name": "Ada", "agree": "true"})

	controls := view.FindAll(n, view.ByAttr("data-role", "control"))
	require.Len(t, controls, 2)
	for _, c := range controls {
		_, disabled := view.GetAttr(c, "disabled")
		assert.True(t, disabled)
	}
	val, _ := view.GetAttr(controls[0], "value")
	assert.Equal(t, "Ada", val)
	_, checked := view.GetAttr(controls[1], "checked")
	assert.True(t, checked)
	assert.Nil(t, view.Find(n, view.HasAttr("data-select")))
}
