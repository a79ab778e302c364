package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"formbuilder/internal/domain"
)

// DefaultHistoryLimit is the number of designer snapshots kept per form.
const DefaultHistoryLimit = 40

// HistoryNode is one designer history entry: a snapshot of the field list.
type HistoryNode struct {
	ID           string    `json:"id"`
	FormID       string    `json:"formId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	Seq          int64     `json:"seq"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryTree is the full history of one form. Undoing past a branch point
// and then editing starts a new branch; older branches stay reachable.
type HistoryTree struct {
	Nodes     []HistoryNode `json:"nodes"`
	CurrentID string        `json:"currentId"`
	RootID    string        `json:"rootId"`
}

// HistoryStore manages designer history in SQLite.
type HistoryStore struct {
	db    *DB
	limit int
}

func NewHistoryStore(db *DB, limit int) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryStore{db: db, limit: limit}
}

const historyColumns = `id, form_id, parent_id, label, snapshot_json, seq, created_at`

func scanHistoryNode(row scanner) (*HistoryNode, error) {
	n := &HistoryNode{}
	if err := row.Scan(&n.ID, &n.FormID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.Seq, &n.CreatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// LoadTree returns the full history of a form, or nil when there is none.
func (s *HistoryStore) LoadTree(formID string) (*HistoryTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT `+historyColumns+` FROM designer_history WHERE form_id = ? ORDER BY seq ASC`, formID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history nodes: %w", err)
	}
	defer rows.Close()

	var nodes []HistoryNode
	var rootID string
	for rows.Next() {
		n, err := scanHistoryNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history node: %w", err)
		}
		if n.ParentID == nil && rootID == "" {
			rootID = n.ID
		}
		nodes = append(nodes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	currentID, err := s.currentID(formID)
	if err != nil {
		currentID = rootID
	}
	return &HistoryTree{Nodes: nodes, CurrentID: currentID, RootID: rootID}, nil
}

func (s *HistoryStore) currentID(formID string) (string, error) {
	var id string
	err := s.db.Conn().QueryRow(
		`SELECT current_node_id FROM designer_history_state WHERE form_id = ?`, formID,
	).Scan(&id)
	return id, err
}

// Current returns the node the designer is positioned at.
func (s *HistoryStore) Current(formID string) (*HistoryNode, error) {
	id, err := s.currentID(formID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history of form %s: %w", formID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load history state: %w", err)
	}
	return s.Node(id)
}

func (s *HistoryStore) Node(id string) (*HistoryNode, error) {
	n, err := scanHistoryNode(s.db.Conn().QueryRow(
		`SELECT `+historyColumns+` FROM designer_history WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history node %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get history node: %w", err)
	}
	return n, nil
}

// LatestChild returns the most recent child of the node, the redo target.
func (s *HistoryStore) LatestChild(id string) (*HistoryNode, error) {
	n, err := scanHistoryNode(s.db.Conn().QueryRow(
		`SELECT `+historyColumns+` FROM designer_history WHERE parent_id = ? ORDER BY seq DESC LIMIT 1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("child of history node %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get history child: %w", err)
	}
	return n, nil
}

// Push records a snapshot under parentID and moves the current position to it.
func (s *HistoryStore) Push(formID, nodeID, parentID, label, snapshotJSON string) (*HistoryNode, error) {
	now := time.Now()

	var pID *string
	if parentID != "" {
		pID = &parentID
	}

	var seq int64
	if err := s.db.Conn().QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM designer_history WHERE form_id = ?`, formID,
	).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next history seq: %w", err)
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO designer_history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nodeID, formID, pID, label, snapshotJSON, seq, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history node: %w", err)
	}
	if err := s.GoTo(formID, nodeID); err != nil {
		return nil, fmt.Errorf("update history state: %w", err)
	}

	s.pruneIfNeeded(formID)

	return &HistoryNode{
		ID:           nodeID,
		FormID:       formID,
		ParentID:     pID,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		Seq:          seq,
		CreatedAt:    now,
	}, nil
}

// GoTo updates the current position pointer.
func (s *HistoryStore) GoTo(formID, nodeID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO designer_history_state (form_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(form_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		formID, nodeID,
	)
	return err
}

// Clear removes all history of a form.
func (s *HistoryStore) Clear(formID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM designer_history_state WHERE form_id = ?`, formID)
	_, err := s.db.Conn().Exec(`DELETE FROM designer_history WHERE form_id = ?`, formID)
	return err
}

// pruneIfNeeded drops the oldest nodes beyond the limit, re-parenting their
// children so the tree stays connected. The current node is never dropped.
func (s *HistoryStore) pruneIfNeeded(formID string) {
	var count int
	s.db.Conn().QueryRow(`SELECT COUNT(*) FROM designer_history WHERE form_id = ?`, formID).Scan(&count)
	if count <= s.limit {
		return
	}
	toDelete := count - s.limit

	// Read the current node before opening the cursor; one connection only.
	currentID, _ := s.currentID(formID)

	rows, err := s.db.Conn().Query(
		`SELECT id FROM designer_history WHERE form_id = ? ORDER BY seq ASC LIMIT ?`, formID, toDelete,
	)
	if err != nil {
		return
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		if id != currentID {
			ids = append(ids, id)
		}
	}
	rows.Close()

	for _, id := range ids {
		var parentID sql.NullString
		s.db.Conn().QueryRow(`SELECT parent_id FROM designer_history WHERE id = ?`, id).Scan(&parentID)
		if parentID.Valid {
			s.db.Conn().Exec(`UPDATE designer_history SET parent_id = ? WHERE parent_id = ?`, parentID.String, id)
		} else {
			s.db.Conn().Exec(`UPDATE designer_history SET parent_id = NULL WHERE parent_id = ?`, id)
		}
		s.db.Conn().Exec(`DELETE FROM designer_history WHERE id = ?`, id)
	}
}
