package app

import (
	"context"
	"sync"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	mcpserver "formbuilder/internal/mcp"
	"formbuilder/internal/storage"
)

// formWatcher polls the database for changes made by a standalone MCP
// process and emits Wails events so the frontend refreshes. It also relays
// that process's approval requests.
type formWatcher struct {
	ctx      context.Context
	forms    *storage.FormStore
	approval *storage.ApprovalStore
	interval time.Duration
	emit     func(event string, data any)

	mu sync.Mutex
	// Open designer tracking
	formID      string
	lastUpdated time.Time
	// Form list tracking (sidebar refresh)
	lastList string
	stopCh   chan struct{}
	// Track emitted approval IDs to avoid re-emission
	emittedApprovals map[string]bool
}

func newFormWatcher(ctx context.Context, a *App) *formWatcher {
	return &formWatcher{
		ctx:              ctx,
		forms:            storage.NewFormStore(a.db),
		approval:         a.approvals,
		interval:         2 * time.Second,
		emit:             func(event string, data any) { wailsRuntime.EventsEmit(ctx, event, data) },
		emittedApprovals: map[string]bool{},
	}
}

// SetForm updates the form open in the designer, "" for none.
func (w *formWatcher) SetForm(formID string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.formID = formID
	w.lastUpdated = time.Time{}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *formWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *formWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *formWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *formWatcher) check() {
	// ── Form list ──────────────────────────────────────
	if fp, err := w.forms.Fingerprint(); err == nil {
		w.mu.Lock()
		changed := w.lastList != "" && w.lastList != fp
		w.lastList = fp
		w.mu.Unlock()
		if changed {
			w.emit("mcp:forms-changed", nil)
		}
	}

	// ── Open form ──────────────────────────────────────
	w.mu.Lock()
	formID, last := w.formID, w.lastUpdated
	w.mu.Unlock()
	if formID != "" {
		if f, err := w.forms.GetForm(formID); err == nil {
			w.mu.Lock()
			if w.formID == formID {
				w.lastUpdated = f.UpdatedAt
			}
			w.mu.Unlock()
			if !last.IsZero() && !f.UpdatedAt.Equal(last) {
				w.emit("mcp:form-changed", map[string]string{"formId": formID})
			}
		}
	}

	// ── Pending approvals (cross-process IPC) ──────────
	pending, err := w.approval.ListPending()
	if err != nil {
		return
	}
	seen := make(map[string]bool, len(pending))
	for _, p := range pending {
		seen[p.ID] = true
		w.mu.Lock()
		alreadySent := w.emittedApprovals[p.ID]
		w.emittedApprovals[p.ID] = true
		w.mu.Unlock()
		if alreadySent {
			continue
		}
		w.emit(mcpserver.EventApprovalRequired, mcpserver.PendingAction{
			ID:          p.ID,
			Tool:        p.Tool,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    p.Metadata,
		})
	}

	// Resolved or timed-out approvals leave the table; dismiss them.
	w.mu.Lock()
	var gone []string
	for id := range w.emittedApprovals {
		if !seen[id] {
			delete(w.emittedApprovals, id)
			gone = append(gone, id)
		}
	}
	w.mu.Unlock()
	for _, id := range gone {
		w.emit(mcpserver.EventApprovalDismissed, map[string]string{"id": id})
	}
}
