package designer

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/domain"
)

func title(id, text string) domain.FieldInstance {
	return domain.NewFieldInstance(id, domain.TitleAttributes{Title: text})
}

func TestAddElement_InsertsAtIndex(t *testing.T) {
	s := NewStore(nil)
	s.AddElement(0, title("a", "A"))
	s.AddElement(0, title("b", "B"))
	s.AddElement(1, title("c", "C"))
	s.AddElement(99, title("d", "D"))
	s.AddElement(-3, title("e", "E"))
	assert.Equal(t, []string{"e", "b", "c", "a", "d"}, s.Elements().IDs())
}

func TestUpdateElement(t *testing.T) {
	s := NewStore(domain.FormDefinition{title("a", "A"), title("b", "B")})

	assert.True(t, s.UpdateElement("b", title("b", "Bee")))
	got, _ := s.Element("b")
	assert.Equal(t, "Bee", got.Attributes.(domain.TitleAttributes).Title)
	assert.Equal(t, []string{"a", "b"}, s.Elements().IDs())

	assert.False(t, s.UpdateElement("missing", title("missing", "X")), "absent id is a no-op")
	assert.False(t, s.UpdateElement("a", title("z", "Z")), "id change refused")
	assert.False(t, s.UpdateElement("a", domain.NewFieldInstance("a", domain.SpacerAttributes{Height: 10})), "kind change refused")
	assert.Equal(t, []string{"a", "b"}, s.Elements().IDs())
}

func TestRemoveElement_ClearsSelection(t *testing.T) {
	s := NewStore(domain.FormDefinition{title("a", "A"), title("b", "B")})
	s.SetSelection("a")

	assert.True(t, s.RemoveElement("a"))
	_, selected := s.Selection()
	assert.False(t, selected)
	assert.Equal(t, []string{"b"}, s.Elements().IDs())

	assert.False(t, s.RemoveElement("a"))
}

func TestRemoveElement_KeepsOtherSelection(t *testing.T) {
	s := NewStore(domain.FormDefinition{title("a", "A"), title("b", "B")})
	s.SetSelection("b")
	s.RemoveElement("a")
	id, ok := s.Selection()
	assert.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestSelection(t *testing.T) {
	s := NewStore(domain.FormDefinition{title("a", "A")})
	s.SetSelection("a")
	inst, ok := s.SelectedElement()
	require.True(t, ok)
	assert.Equal(t, "a", inst.ID)

	s.SetSelection("ghost")
	_, ok = s.Selection()
	assert.False(t, ok)

	s.SetSelection("a")
	s.ClearSelection()
	_, ok = s.SelectedElement()
	assert.False(t, ok)
}

func TestElements_ReturnsCopy(t *testing.T) {
	s := NewStore(domain.FormDefinition{title("a", "A")})
	els := s.Elements()
	els[0] = title("x", "X")
	assert.Equal(t, []string{"a"}, s.Elements().IDs())
}

func TestSubscribe_NotifiesEveryMutation(t *testing.T) {
	s := NewStore(nil)
	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })

	s.AddElement(0, title("a", "A"))
	s.UpdateElement("a", title("a", "AA"))
	s.SetSelection("a")
	s.RemoveElement("a")
	s.UpdateElement("a", title("a", "AAA"))
	s.Load(domain.FormDefinition{title("b", "B")})

	assert.Equal(t, []Change{
		{Op: OpAdded, ID: "a"},
		{Op: OpUpdated, ID: "a"},
		{Op: OpSelected, ID: "a"},
		{Op: OpRemoved, ID: "a"},
		{Op: OpLoaded},
	}, got)
	assert.True(t, got[0].Definition())
	assert.False(t, got[2].Definition())
}

func TestLoad_DropsStaleSelection(t *testing.T) {
	s := NewStore(domain.FormDefinition{title("a", "A")})
	s.SetSelection("a")
	s.Load(domain.FormDefinition{title("b", "B")})
	_, ok := s.Selection()
	assert.False(t, ok)
}

// Random mutation sequences must keep ids unique and match a reference list.
func TestStore_OrderPreservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewStore(nil)
	var model []string
	next := 0

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(model) == 0:
			id := fmt.Sprintf("f%d", next)
			next++
			i := rng.Intn(len(model) + 1)
			s.AddElement(i, title(id, "T"+id))
			model = append(model[:i], append([]string{id}, model[i:]...)...)
		case op == 1:
			i := rng.Intn(len(model))
			require.True(t, s.RemoveElement(model[i]))
			model = append(model[:i], model[i+1:]...)
		default:
			id := model[rng.Intn(len(model))]
			require.True(t, s.UpdateElement(id, title(id, "U"+id)))
		}
		require.Equal(t, emptyAsNil(model), emptyAsNil(s.Elements().IDs()), "step %d", step)
		require.NoError(t, s.Elements().Validate())
	}
}

func emptyAsNil(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return ids
}
