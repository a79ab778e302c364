package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/net/html"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/view"
)

var (
	ErrSubmitInFlight   = errors.New("a submit is already in progress")
	ErrSubmitFailed     = errors.New("submit failed")
	ErrAlreadySubmitted = errors.New("form already submitted")
	ErrInvalidValues    = errors.New("form has invalid fields")
	ErrUnknownField     = errors.New("unknown field")
)

// ValidationError lists the fields that blocked a submit.
type ValidationError struct {
	Invalid []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d field(s) failed validation", len(e.Invalid))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidValues }

// Submitter delivers validated values to the persistence collaborator.
type Submitter interface {
	Submit(ctx context.Context, values domain.SubmissionValues) error
}

type SubmitterFunc func(ctx context.Context, values domain.SubmissionValues) error

func (f SubmitterFunc) Submit(ctx context.Context, values domain.SubmissionValues) error {
	return f(ctx, values)
}

// FillSession owns the values and invalid flags of one form completion.
type FillSession struct {
	registry *fields.Registry
	elements domain.FormDefinition

	mu        sync.Mutex
	values    domain.SubmissionValues
	invalid   domain.InvalidFlags
	submitted bool

	inflight   sync.Mutex
	submitting bool
}

func (p *Pipeline) NewFillSession(elements domain.FormDefinition) *FillSession {
	return &FillSession{
		registry: p.registry,
		elements: elements.Clone(),
		values:   domain.SubmissionValues{},
		invalid:  domain.InvalidFlags{},
	}
}

func (f *FillSession) Elements() domain.FormDefinition { return f.elements.Clone() }

// Change records a value for id. Values for unknown ids are dropped.
func (f *FillSession) Change(id, value string) {
	if f.elements.Find(id) < 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[id] = value
}

// Edit feeds raw user input through the field's fill view, which encodes it,
// refreshes the field's invalid highlight and reports the value via Change.
func (f *FillSession) Edit(id, raw string) error {
	i := f.elements.Find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	v, err := f.view(f.elements[i], false)
	if err != nil {
		return err
	}
	if err := v.Edit(raw); err != nil {
		return err
	}
	if v.Editable() {
		f.mu.Lock()
		f.invalid[id] = v.Invalid()
		f.mu.Unlock()
	}
	return nil
}

// Flag marks id invalid until the next validation, for input rejected
// before it reached the session.
func (f *FillSession) Flag(id string) {
	if f.elements.Find(id) < 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalid[id] = true
}

func (f *FillSession) view(inst domain.FieldInstance, disabled bool) (*fields.FillView, error) {
	f.mu.Lock()
	props := fields.FillProps{
		OnChange:     f.Change,
		Invalid:      f.invalid[inst.ID],
		DefaultValue: f.values[inst.ID],
		Disabled:     disabled,
	}
	f.mu.Unlock()
	return f.registry.RenderFill(inst, props)
}

// Values returns a copy of the current values.
func (f *FillSession) Values() domain.SubmissionValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(domain.SubmissionValues, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Invalid returns a copy of the current invalid flags.
func (f *FillSession) Invalid() domain.InvalidFlags {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(domain.InvalidFlags, len(f.invalid))
	for k, v := range f.invalid {
		out[k] = v
	}
	return out
}

// Validate runs every field's validation against its current value, a
// missing value counting as empty, and replaces the invalid flags with the
// result. It returns the failing ids in form order.
func (f *FillSession) Validate() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *FillSession) validateLocked() []string {
	var failed []string
	invalid := domain.InvalidFlags{}
	for _, inst := range f.elements {
		if !f.registry.Validate(inst, f.values[inst.ID]) {
			failed = append(failed, inst.ID)
			invalid[inst.ID] = true
		}
	}
	f.invalid = invalid
	return failed
}

// Submit validates every field and, when all pass, hands the values to s.
// A failing field blocks the whole submit with a *ValidationError. While a
// submit is outstanding further calls return ErrSubmitInFlight. A submitter
// error leaves values and flags untouched so the user can retry.
func (f *FillSession) Submit(ctx context.Context, s Submitter) error {
	if !f.inflight.TryLock() {
		return ErrSubmitInFlight
	}
	defer f.inflight.Unlock()

	f.mu.Lock()
	if f.submitted {
		f.mu.Unlock()
		return ErrAlreadySubmitted
	}
	if failed := f.validateLocked(); len(failed) > 0 {
		f.mu.Unlock()
		return &ValidationError{Invalid: failed}
	}
	values := make(domain.SubmissionValues, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	f.submitting = true
	f.mu.Unlock()

	err := s.Submit(ctx, values)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	f.submitted = true
	f.values = domain.SubmissionValues{}
	f.invalid = domain.InvalidFlags{}
	return nil
}

func (f *FillSession) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

// Submitting reports whether a submit is outstanding.
func (f *FillSession) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Reset discards values and flags and allows a new submission.
func (f *FillSession) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = domain.SubmissionValues{}
	f.invalid = domain.InvalidFlags{}
	f.submitted = false
}

// Render draws the live form, or the confirmation once submitted.
func (f *FillSession) Render() *html.Node {
	if f.Submitted() {
		return view.El("div", view.Class("form-submitted"),
			view.El("h1", "Form submitted"),
			view.El("p", "Thank you for submitting the form, you can close this page now."),
		)
	}
	form := view.El("form", view.Class("form-fill"), view.A("data-fill-session", ""))
	for _, inst := range f.elements {
		v, err := f.view(inst, false)
		if err != nil {
			form.AppendChild(f.registry.RenderDesign(inst))
			continue
		}
		form.AppendChild(v.Node())
	}
	form.AppendChild(view.El("button",
		view.A("type", "submit"),
		view.A("data-submit", ""),
		view.When(f.Submitting(), view.A("disabled", "")),
		"Submit",
	))
	return form
}
