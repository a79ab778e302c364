package domain

import (
	"errors"
	"time"
)

// Form is a stored form: its serialized FormDefinition plus publish state.
type Form struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Published   bool      `json:"published"`
	Content     string    `json:"content"` // JSON-encoded FormDefinition
	ShareURL    string    `json:"shareUrl"`
	Visits      int       `json:"visits"`
	Submissions int       `json:"submissions"`
	Template    string    `json:"template,omitempty"` // template the form was created from
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Definition decodes the stored content.
func (f *Form) Definition() (FormDefinition, error) {
	return UnmarshalDefinition(f.Content)
}

// Submission is one completed fill of a published form.
type Submission struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	Content   string    `json:"content"` // JSON-encoded SubmissionValues
	CreatedAt time.Time `json:"createdAt"`
}

type FormStore interface {
	CreateForm(f *Form) error
	GetForm(id string) (*Form, error)
	GetFormByShareURL(shareURL string) (*Form, error)
	ListForms() ([]Form, error)
	UpdateContent(id, content string) error
	SetPublished(id string) error
	IncrementVisits(id string) error
	DeleteForm(id string) error
}

type SubmissionStore interface {
	CreateSubmission(s *Submission) error
	ListSubmissions(formID string) ([]Submission, error)
	ListSubmissionsSince(formID string, since time.Time) ([]Submission, error)
	DeleteSubmissionsByForm(formID string) error
}

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")
