package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"formbuilder/internal/designer"
	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/storage"
)

var (
	ErrSessionNotOpen = errors.New("designer session not open")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
)

// HistoryStore is the slice of storage.HistoryStore the designer needs.
type HistoryStore interface {
	LoadTree(formID string) (*storage.HistoryTree, error)
	Current(formID string) (*storage.HistoryNode, error)
	Node(id string) (*storage.HistoryNode, error)
	LatestChild(id string) (*storage.HistoryNode, error)
	Push(formID, nodeID, parentID, label, snapshotJSON string) (*storage.HistoryNode, error)
	GoTo(formID, nodeID string) error
	Clear(formID string) error
}

// ─────────────────────────────────────────────────────────────
// Designer Service — editing sessions with undo history
// ─────────────────────────────────────────────────────────────

// DesignerService keeps one designer.Session per open form. Every change to
// a session's field list is snapshotted into the history tree.
type DesignerService struct {
	forms      *FormService
	history    HistoryStore
	registry   *fields.Registry
	emitter    EventEmitter
	thresholds designer.Thresholds
	newID      func() string

	mu       sync.Mutex
	sessions map[string]*openSession
}

type openSession struct {
	mu        sync.Mutex
	session   *designer.Session
	currentID string

	// Inside Do, changes are collected and snapshotted once fn returns.
	batching bool
	pending  []designer.Change
}

func NewDesignerService(forms *FormService, history HistoryStore, registry *fields.Registry, emitter EventEmitter, thresholds designer.Thresholds) *DesignerService {
	return &DesignerService{
		forms:      forms,
		history:    history,
		registry:   registry,
		emitter:    emitterOrNop(emitter),
		thresholds: thresholds,
		newID:      uuid.NewString,
		sessions:   make(map[string]*openSession),
	}
}

// SetIDGenerator replaces the uuid generator used for elements and history
// nodes, for tests.
func (s *DesignerService) SetIDGenerator(fn func() string) { s.newID = fn }

// Open starts editing a form, or returns the session already open for it.
func (s *DesignerService) Open(ctx context.Context, formID string) (*designer.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open, ok := s.sessions[formID]; ok {
		return open.session, nil
	}

	def, err := s.forms.Definition(formID)
	if err != nil {
		return nil, fmt.Errorf("open designer: %w", err)
	}
	open := &openSession{
		session: designer.NewSession(formID, def, s.registry,
			designer.WithIDGenerator(s.newID),
			designer.WithThresholds(s.thresholds),
		),
	}

	snap, err := domain.MarshalDefinition(def)
	if err != nil {
		return nil, err
	}
	cur, err := s.history.Current(formID)
	switch {
	case err == nil && cur.SnapshotJSON == snap:
		open.currentID = cur.ID
	case err == nil || errors.Is(err, domain.ErrNotFound):
		// No history yet, or the stored content moved on without it.
		parent := ""
		if cur != nil {
			parent = cur.ID
		}
		node, err := s.history.Push(formID, s.newID(), parent, "open", snap)
		if err != nil {
			return nil, fmt.Errorf("open designer history: %w", err)
		}
		open.currentID = node.ID
	default:
		return nil, fmt.Errorf("open designer history: %w", err)
	}

	open.session.Store.Subscribe(func(c designer.Change) {
		if !c.Definition() {
			return
		}
		if open.batching {
			open.pending = append(open.pending, c)
		} else {
			s.snapshot(ctx, open, historyLabel([]designer.Change{c}))
		}
		s.emitter.Emit(ctx, EventDesignerChanged, map[string]string{"formId": formID, "op": string(c.Op), "id": c.ID})
	})
	s.sessions[formID] = open
	log.Printf("[designer] opened form %s (%d elements)", formID, len(def))
	return open.session, nil
}

// snapshot records the current field list as a child of the current node.
func (s *DesignerService) snapshot(ctx context.Context, open *openSession, label string) {
	formID := open.session.FormID
	snap, err := domain.MarshalDefinition(open.session.Store.Elements())
	if err != nil {
		log.Printf("[designer] snapshot of %s failed: %v", formID, err)
		return
	}
	node, err := s.history.Push(formID, s.newID(), open.currentID, label, snap)
	if err != nil {
		log.Printf("[designer] history push for %s failed: %v", formID, err)
		return
	}
	open.currentID = node.ID
	s.emitter.Emit(ctx, EventDesignerHistory, node)
}

// Do runs fn against the open session of formID, serialized with every other
// call on that session.
func (s *DesignerService) Do(formID string, fn func(*designer.Session) error) error {
	open, err := s.open(formID)
	if err != nil {
		return err
	}
	open.mu.Lock()
	defer open.mu.Unlock()

	open.batching = true
	err = fn(open.session)
	open.batching = false
	if changes := open.pending; len(changes) > 0 {
		open.pending = nil
		s.snapshot(context.Background(), open, historyLabel(changes))
	}
	return err
}

// historyLabel names a history node after the changes it captures. A remove
// and re-add of the same element is a move.
func historyLabel(changes []designer.Change) string {
	if len(changes) == 2 && changes[0].ID == changes[1].ID &&
		changes[0].Op == designer.OpRemoved && changes[1].Op == designer.OpAdded {
		return "moved " + changes[0].ID
	}
	last := changes[len(changes)-1]
	if len(changes) == 1 {
		return string(last.Op) + " " + last.ID
	}
	return fmt.Sprintf("%d changes", len(changes))
}

func (s *DesignerService) open(formID string) (*openSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open, ok := s.sessions[formID]
	if !ok {
		return nil, fmt.Errorf("form %s: %w", formID, ErrSessionNotOpen)
	}
	return open, nil
}

// Save writes the session's field list to the form record.
func (s *DesignerService) Save(ctx context.Context, formID string) error {
	var def domain.FormDefinition
	if err := s.Do(formID, func(sess *designer.Session) error {
		def = sess.Store.Elements()
		return nil
	}); err != nil {
		return err
	}
	return s.forms.SaveDefinition(ctx, formID, def)
}

// Undo restores the snapshot before the current one.
func (s *DesignerService) Undo(ctx context.Context, formID string) error {
	return s.travel(ctx, formID, func(cur *storage.HistoryNode) (*storage.HistoryNode, error) {
		if cur.ParentID == nil {
			return nil, ErrNothingToUndo
		}
		return s.history.Node(*cur.ParentID)
	})
}

// Redo restores the most recent snapshot made after the current one.
func (s *DesignerService) Redo(ctx context.Context, formID string) error {
	return s.travel(ctx, formID, func(cur *storage.HistoryNode) (*storage.HistoryNode, error) {
		next, err := s.history.LatestChild(cur.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNothingToRedo
		}
		return next, err
	})
}

func (s *DesignerService) travel(ctx context.Context, formID string, step func(*storage.HistoryNode) (*storage.HistoryNode, error)) error {
	open, err := s.open(formID)
	if err != nil {
		return err
	}
	open.mu.Lock()
	defer open.mu.Unlock()

	cur, err := s.history.Node(open.currentID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	target, err := step(cur)
	if err != nil {
		return err
	}
	def, err := domain.UnmarshalDefinition(target.SnapshotJSON)
	if err != nil {
		return fmt.Errorf("restore snapshot %s: %w", target.ID, err)
	}
	if err := s.history.GoTo(formID, target.ID); err != nil {
		return fmt.Errorf("move history: %w", err)
	}
	open.currentID = target.ID
	open.session.Store.Load(def)
	s.emitter.Emit(ctx, EventDesignerChanged, map[string]string{"formId": formID, "op": string(designer.OpLoaded)})
	return nil
}

// History returns the snapshot tree of a form.
func (s *DesignerService) History(formID string) (*storage.HistoryTree, error) {
	return s.history.LoadTree(formID)
}

// Close drops the session. Unsaved changes stay in history only.
func (s *DesignerService) Close(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, formID)
}

// Forget closes the session and deletes its history, used when the form is deleted.
func (s *DesignerService) Forget(formID string) error {
	s.Close(formID)
	return s.history.Clear(formID)
}
