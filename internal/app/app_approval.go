package app

import (
	"errors"

	"formbuilder/internal/domain"
	"formbuilder/internal/storage"
)

// ============================================================
// MCP approvals
// ============================================================
// Approvals come from the in-process MCP server (channel) or from a
// standalone MCP process (mcp_approvals rows). The frontend answers both
// through the same bindings.

func (a *App) ListPendingApprovals() ([]storage.PendingApproval, error) {
	return a.approvals.ListPending()
}

func (a *App) ApproveAction(id string) error {
	return a.resolveApproval(id, true)
}

func (a *App) RejectAction(id string) error {
	return a.resolveApproval(id, false)
}

func (a *App) resolveApproval(id string, approved bool) error {
	if approved {
		a.mcp.Approve(id)
	} else {
		a.mcp.Reject(id)
	}
	err := a.approvals.Resolve(id, approved)
	if errors.Is(err, domain.ErrNotFound) {
		// In-process request; no row to update.
		return nil
	}
	return err
}
