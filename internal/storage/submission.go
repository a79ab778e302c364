package storage

import (
	"fmt"
	"time"

	"formbuilder/internal/domain"
)

// SubmissionStore implements domain.SubmissionStore using SQLite.
type SubmissionStore struct {
	db *DB
}

func NewSubmissionStore(db *DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// CreateSubmission stores a submission and bumps the form's submission
// counter in the same transaction.
func (s *SubmissionStore) CreateSubmission(sub *domain.Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	// Stored in UTC so created_at compares correctly as text.
	sub.CreatedAt = sub.CreatedAt.UTC()
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE forms SET submissions = submissions + 1 WHERE id = ?`, sub.FormID)
	if err != nil {
		return fmt.Errorf("increment submissions: %w", err)
	}
	if err := expectRow(res, "form "+sub.FormID); err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO form_submissions (id, form_id, content, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID, sub.FormID, sub.Content, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return tx.Commit()
}

func (s *SubmissionStore) ListSubmissions(formID string) ([]domain.Submission, error) {
	return s.query(
		`SELECT id, form_id, content, created_at FROM form_submissions WHERE form_id = ? ORDER BY created_at ASC`,
		formID,
	)
}

// ListSubmissionsSince returns submissions created strictly after since.
func (s *SubmissionStore) ListSubmissionsSince(formID string, since time.Time) ([]domain.Submission, error) {
	return s.query(
		`SELECT id, form_id, content, created_at FROM form_submissions WHERE form_id = ? AND created_at > ? ORDER BY created_at ASC`,
		formID, since.UTC(),
	)
}

func (s *SubmissionStore) query(q string, args ...any) ([]domain.Submission, error) {
	rows, err := s.db.Conn().Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		if err := rows.Scan(&sub.ID, &sub.FormID, &sub.Content, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SubmissionStore) DeleteSubmissionsByForm(formID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM form_submissions WHERE form_id = ?`, formID)
	return err
}
