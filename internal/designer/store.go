// Package designer holds the state of one form editing session: the ordered
// field list and selection, the drag/drop controller that mutates them, and
// the Session that ties both to the field registry.
package designer

import "formbuilder/internal/domain"

type ChangeOp string

const (
	OpAdded    ChangeOp = "added"
	OpUpdated  ChangeOp = "updated"
	OpRemoved  ChangeOp = "removed"
	OpSelected ChangeOp = "selected"
	OpLoaded   ChangeOp = "loaded"
)

// Change describes one applied mutation.
type Change struct {
	Op ChangeOp
	ID string
}

// Definition reports whether the change altered the field list itself,
// as opposed to selection only.
func (c Change) Definition() bool {
	return c.Op == OpAdded || c.Op == OpUpdated || c.Op == OpRemoved
}

// Store owns the FormDefinition and selection of one editing session.
// It is not safe for concurrent use; a session has a single owner.
type Store struct {
	elements    domain.FormDefinition
	selected    string
	hasSelected bool
	listeners   []func(Change)
}

func NewStore(def domain.FormDefinition) *Store {
	return &Store{elements: def.Clone()}
}

// Subscribe registers fn to run after every applied mutation.
func (s *Store) Subscribe(fn func(Change)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(c Change) {
	for _, fn := range s.listeners {
		fn(c)
	}
}

// Elements returns a copy of the ordered field list.
func (s *Store) Elements() domain.FormDefinition {
	return s.elements.Clone()
}

func (s *Store) Len() int { return len(s.elements) }

// Element returns the instance with the given id.
func (s *Store) Element(id string) (domain.FieldInstance, bool) {
	i := s.elements.Find(id)
	if i < 0 {
		return domain.FieldInstance{}, false
	}
	return s.elements[i], true
}

// AddElement inserts inst at index, shifting later elements down. The index
// is clamped to [0, len]. Callers supply unique ids.
func (s *Store) AddElement(index int, inst domain.FieldInstance) {
	if index < 0 {
		index = 0
	}
	if index > len(s.elements) {
		index = len(s.elements)
	}
	s.elements = append(s.elements, domain.FieldInstance{})
	copy(s.elements[index+1:], s.elements[index:])
	s.elements[index] = inst
	s.notify(Change{Op: OpAdded, ID: inst.ID})
}

// UpdateElement replaces the instance with the given id in place.
// It returns false without mutating anything when id is absent, or when inst
// carries another id or another kind.
func (s *Store) UpdateElement(id string, inst domain.FieldInstance) bool {
	i := s.elements.Find(id)
	if i < 0 || inst.ID != id || inst.Kind != s.elements[i].Kind {
		return false
	}
	s.elements[i] = inst
	s.notify(Change{Op: OpUpdated, ID: id})
	return true
}

// RemoveElement removes the instance with the given id. Removing the selected
// element clears the selection in the same step. An absent id is a no-op
// returning false.
func (s *Store) RemoveElement(id string) bool {
	i := s.elements.Find(id)
	if i < 0 {
		return false
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	if s.hasSelected && s.selected == id {
		s.selected, s.hasSelected = "", false
	}
	s.notify(Change{Op: OpRemoved, ID: id})
	return true
}

// SetSelection selects the element with the given id. Selecting an id that
// is not on the canvas clears the selection.
func (s *Store) SetSelection(id string) {
	if s.elements.Find(id) < 0 {
		s.ClearSelection()
		return
	}
	s.selected, s.hasSelected = id, true
	s.notify(Change{Op: OpSelected, ID: id})
}

func (s *Store) ClearSelection() {
	if !s.hasSelected {
		return
	}
	s.selected, s.hasSelected = "", false
	s.notify(Change{Op: OpSelected})
}

// Selection returns the selected id, if any.
func (s *Store) Selection() (string, bool) {
	return s.selected, s.hasSelected
}

func (s *Store) SelectedElement() (domain.FieldInstance, bool) {
	if !s.hasSelected {
		return domain.FieldInstance{}, false
	}
	return s.Element(s.selected)
}

// Load replaces the whole definition, keeping the selection only if the
// selected id survives.
func (s *Store) Load(def domain.FormDefinition) {
	s.elements = def.Clone()
	if s.hasSelected && s.elements.Find(s.selected) < 0 {
		s.selected, s.hasSelected = "", false
	}
	s.notify(Change{Op: OpLoaded})
}
