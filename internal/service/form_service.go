package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/render"
)

var (
	ErrFormPublished    = errors.New("form is published")
	ErrFormNotPublished = errors.New("form is not published")
	ErrInvalidForm      = errors.New("invalid form")
)

// InvalidSubmissionError lists the fields a submitted payload failed on.
type InvalidSubmissionError struct {
	Invalid []string
}

func (e *InvalidSubmissionError) Error() string {
	return "invalid submission: " + strings.Join(e.Invalid, ", ")
}

func (e *InvalidSubmissionError) Unwrap() error { return render.ErrInvalidValues }

// ─────────────────────────────────────────────────────────────
// Form Service — forms, publishing and submissions
// ─────────────────────────────────────────────────────────────

// FormService owns the form lifecycle: drafts are saved while unpublished,
// publishing freezes the definition and opens the share URL for fills.
type FormService struct {
	forms    domain.FormStore
	subs     domain.SubmissionStore
	registry *fields.Registry
	emitter  EventEmitter
	newID    func() string
}

func NewFormService(forms domain.FormStore, subs domain.SubmissionStore, registry *fields.Registry, emitter EventEmitter) *FormService {
	return &FormService{
		forms:    forms,
		subs:     subs,
		registry: registry,
		emitter:  emitterOrNop(emitter),
		newID:    uuid.NewString,
	}
}

// SetIDGenerator replaces the uuid generator, for tests.
func (s *FormService) SetIDGenerator(fn func() string) { s.newID = fn }

// CreateForm creates an empty draft. Names are 4 to 100 characters.
func (s *FormService) CreateForm(ctx context.Context, name, description string) (*domain.Form, error) {
	return s.createForm(ctx, name, description, "", domain.FormDefinition{})
}

func (s *FormService) createForm(ctx context.Context, name, description, template string, def domain.FormDefinition) (*domain.Form, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 4 || n > 100 {
		return nil, fmt.Errorf("%w: name must be 4 to 100 characters", ErrInvalidForm)
	}
	content, err := domain.MarshalDefinition(def)
	if err != nil {
		return nil, err
	}
	f := &domain.Form{
		ID:          s.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Content:     content,
		ShareURL:    s.newID(),
		Template:    template,
	}
	if err := s.forms.CreateForm(f); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	s.emitter.Emit(ctx, EventFormCreated, f)
	return f, nil
}

func (s *FormService) GetForm(id string) (*domain.Form, error) {
	return s.forms.GetForm(id)
}

func (s *FormService) GetFormByShareURL(shareURL string) (*domain.Form, error) {
	return s.forms.GetFormByShareURL(shareURL)
}

func (s *FormService) ListForms() ([]domain.Form, error) {
	return s.forms.ListForms()
}

// Definition loads and decodes the stored field list of a form.
func (s *FormService) Definition(formID string) (domain.FormDefinition, error) {
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return nil, err
	}
	return f.Definition()
}

// Save replaces the draft content. content must decode as a FormDefinition.
func (s *FormService) Save(ctx context.Context, formID, content string) error {
	def, err := domain.UnmarshalDefinition(content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	return s.SaveDefinition(ctx, formID, def)
}

func (s *FormService) SaveDefinition(ctx context.Context, formID string, def domain.FormDefinition) error {
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return err
	}
	if f.Published {
		return fmt.Errorf("save form %s: %w", formID, ErrFormPublished)
	}
	content, err := domain.MarshalDefinition(def)
	if err != nil {
		return err
	}
	if err := s.forms.UpdateContent(formID, content); err != nil {
		// Lost a race with Publish.
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("save form %s: %w", formID, ErrFormPublished)
		}
		return fmt.Errorf("save form: %w", err)
	}
	f.Content = content
	s.emitter.Emit(ctx, EventFormSaved, f)
	return nil
}

// Publish freezes the form and opens it for submissions. Publishing twice is a no-op.
func (s *FormService) Publish(ctx context.Context, formID string) (*domain.Form, error) {
	f, err := s.forms.GetForm(formID)
	if err != nil {
		return nil, err
	}
	if f.Published {
		return f, nil
	}
	if err := s.forms.SetPublished(formID); err != nil {
		return nil, fmt.Errorf("publish form: %w", err)
	}
	f.Published = true
	s.emitter.Emit(ctx, EventFormPublished, f)
	return f, nil
}

// RecordVisit counts one open of the share URL. Only published forms count.
func (s *FormService) RecordVisit(shareURL string) (*domain.Form, error) {
	f, err := s.publishedForm(shareURL)
	if err != nil {
		return nil, err
	}
	if err := s.forms.IncrementVisits(f.ID); err != nil {
		return nil, fmt.Errorf("record visit: %w", err)
	}
	f.Visits++
	return f, nil
}

// Submit stores one fill of a published form. content is the JSON encoded
// SubmissionValues; it is validated again against the stored definition.
func (s *FormService) Submit(ctx context.Context, shareURL, content string) (*domain.Submission, error) {
	values, err := domain.UnmarshalValues(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrInvalidValues, err)
	}
	return s.SubmitValues(ctx, shareURL, values)
}

func (s *FormService) SubmitValues(ctx context.Context, shareURL string, values domain.SubmissionValues) (*domain.Submission, error) {
	f, err := s.publishedForm(shareURL)
	if err != nil {
		return nil, err
	}
	def, err := f.Definition()
	if err != nil {
		return nil, fmt.Errorf("load definition: %w", err)
	}

	kept := domain.SubmissionValues{}
	var invalid []string
	for _, inst := range def {
		if inst.Kind.IsLayout() {
			continue
		}
		v := values[inst.ID]
		if !s.registry.Validate(inst, v) {
			invalid = append(invalid, inst.ID)
			continue
		}
		if v != "" {
			kept[inst.ID] = v
		}
	}
	if len(invalid) > 0 {
		return nil, &InvalidSubmissionError{Invalid: invalid}
	}

	content, err := domain.MarshalValues(kept)
	if err != nil {
		return nil, err
	}
	sub := &domain.Submission{ID: s.newID(), FormID: f.ID, Content: content}
	if err := s.subs.CreateSubmission(sub); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}
	s.emitter.Emit(ctx, EventFormSubmitted, sub)
	return sub, nil
}

// Submitter adapts SubmitValues for a render.FillSession.
func (s *FormService) Submitter(shareURL string) render.Submitter {
	return render.SubmitterFunc(func(ctx context.Context, values domain.SubmissionValues) error {
		_, err := s.SubmitValues(ctx, shareURL, values)
		return err
	})
}

func (s *FormService) publishedForm(shareURL string) (*domain.Form, error) {
	f, err := s.forms.GetFormByShareURL(shareURL)
	if err != nil {
		return nil, err
	}
	if !f.Published {
		return nil, fmt.Errorf("form %s: %w", f.ID, ErrFormNotPublished)
	}
	return f, nil
}

func (s *FormService) ListSubmissions(formID string) ([]domain.Submission, error) {
	return s.subs.ListSubmissions(formID)
}

// DeleteForm removes the form with everything hanging off it.
func (s *FormService) DeleteForm(ctx context.Context, formID string) error {
	if err := s.forms.DeleteForm(formID); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	s.emitter.Emit(ctx, EventFormDeleted, formID)
	return nil
}
