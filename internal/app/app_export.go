package app

import (
	"slices"

	"formbuilder/internal/domain"
	"formbuilder/internal/service"
)

// ============================================================
// Export destinations
// ============================================================

func (a *App) destinationView(d *domain.ExportDestination) DestinationView {
	return DestinationView{ExportDestination: *d, Running: slices.Contains(a.exports.Running(), d.ID)}
}

func (a *App) ListExportDestinations(formID string) ([]DestinationView, error) {
	dests, err := a.exports.ListDestinations(formID)
	if err != nil {
		return nil, err
	}
	out := make([]DestinationView, 0, len(dests))
	for i := range dests {
		out = append(out, a.destinationView(&dests[i]))
	}
	return out, nil
}

func (a *App) CreateExportDestination(input service.DestinationInput) (*DestinationView, error) {
	d, err := a.exports.CreateDestination(a.ctx, input)
	if err != nil {
		return nil, err
	}
	v := a.destinationView(d)
	return &v, nil
}

// UpdateExportDestination keeps the stored password when input.Password is empty.
func (a *App) UpdateExportDestination(id string, input service.DestinationInput) error {
	return a.exports.UpdateDestination(a.ctx, id, input)
}

func (a *App) DeleteExportDestination(id string) error {
	return a.exports.DeleteDestination(a.ctx, id)
}

func (a *App) TestExportDestination(id string) error {
	return a.exports.TestDestination(a.ctx, id)
}

// RunExport runs in the background; progress arrives as export:* events.
func (a *App) RunExport(id string) {
	go a.exports.RunExport(a.ctx, id)
}
