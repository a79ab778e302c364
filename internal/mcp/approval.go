package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"formbuilder/internal/storage"

	"github.com/google/uuid"
)

// EventEmitter allows the approval queue to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Approval events sent to the desktop app.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// ErrRejected is returned when the user declines an action or lets it time out.
var ErrRejected = errors.New("action not approved")

// PendingAction is a destructive tool call waiting for the user.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. form ID)
}

type actionResult struct {
	approved bool
}

// ApprovalQueue asks the user before publishing or deleting forms.
// It supports two modes:
//   - In-process (desktop app running MCP): channels + frontend events
//   - Store-based (standalone MCP): rows in mcp_approvals, polled until resolved
type ApprovalQueue struct {
	mu       sync.Mutex
	pending  map[string]chan actionResult
	ctx      context.Context
	emitter  EventEmitter
	timeout  time.Duration
	interval time.Duration
	store    *storage.ApprovalStore
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending:  make(map[string]chan actionResult),
		ctx:      ctx,
		emitter:  emitter,
		timeout:  120 * time.Second,
		interval: 500 * time.Millisecond,
	}
}

// SetStore enables store-based approval for the standalone process.
func (q *ApprovalQueue) SetStore(store *storage.ApprovalStore) {
	q.store = store
}

// SetTimeout changes how long a request waits for an answer.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request blocks until the action is approved, rejected or times out.
// metadata is optional JSON the frontend uses to highlight the target.
func (q *ApprovalQueue) Request(tool, description string, metadata ...string) error {
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}

	if q.store != nil {
		return q.requestViaStore(id, tool, description, meta)
	}
	return q.requestViaChannel(id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(id, tool, description, metadata string) error {
	err := q.store.Create(&storage.PendingApproval{
		ID: id, Tool: tool, Description: description, Metadata: metadata,
	})
	if err != nil {
		return err
	}
	defer q.store.Delete(id)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.Status(id)
			if err != nil {
				continue
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("%s: %w", tool, ErrRejected)
			}
		case <-deadline.C:
			return fmt.Errorf("%s timed out after %s: %w", tool, q.timeout, ErrRejected)
		case <-q.ctx.Done():
			return q.ctx.Err()
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(id, tool, description, metadata string) error {
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case result := <-ch:
		if !result.approved {
			return fmt.Errorf("%s: %w", tool, ErrRejected)
		}
		return nil
	case <-time.After(q.timeout):
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("%s timed out after %s: %w", tool, q.timeout, ErrRejected)
	case <-q.ctx.Done():
		return q.ctx.Err()
	}
}

// Approve marks a pending action as approved (in-process mode).
func (q *ApprovalQueue) Approve(actionID string) { q.resolve(actionID, true) }

// Reject marks a pending action as rejected (in-process mode).
func (q *ApprovalQueue) Reject(actionID string) { q.resolve(actionID, false) }

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- actionResult{approved: approved}:
	default:
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
