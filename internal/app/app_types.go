package app

import "formbuilder/internal/domain"

// FormView is the frontend view of a form, with its public link once published.
type FormView struct {
	domain.Form
	ShareLink string `json:"shareLink"`
}

// DesignerView is the rendered designer of one form.
type DesignerView struct {
	FormID   string `json:"formId"`
	Sidebar  string `json:"sidebar"`
	Canvas   string `json:"canvas"`
	Selected string `json:"selected"`
	Dragging bool   `json:"dragging"`
	Overlay  string `json:"overlay,omitempty"`
}

// PointerInput describes a pointer-down on the palette or on a canvas element.
// Exactly one of Kind and ElementID is set.
type PointerInput struct {
	Kind      string  `json:"kind"`
	ElementID string  `json:"elementId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Touch     bool    `json:"touch"`
}

// DropTarget is the drop zone under the pointer: "canvas", or the "top" or
// "bottom" half of element ElementID. An empty Zone means no target.
type DropTarget struct {
	Zone      string `json:"zone"`
	ElementID string `json:"elementId"`
}

// PropertiesInput is one blur of the properties panel.
type PropertiesInput struct {
	Values  map[string]string `json:"values"`
	Options []string          `json:"options"`
}

// DestinationView is the frontend-safe view of an export destination (no password).
type DestinationView struct {
	domain.ExportDestination
	Running bool `json:"running"`
}

// SubmissionView is a past submission rendered read-only.
type SubmissionView struct {
	domain.Submission
	HTML string `json:"html"`
}
