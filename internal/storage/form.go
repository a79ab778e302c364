package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"formbuilder/internal/domain"
)

const formColumns = `id, name, description, published, content, share_url, visits, submissions, template, created_at, updated_at`

// FormStore implements domain.FormStore using SQLite.
type FormStore struct {
	db *DB
}

func NewFormStore(db *DB) *FormStore {
	return &FormStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (*domain.Form, error) {
	f := &domain.Form{}
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Published, &f.Content, &f.ShareURL,
		&f.Visits, &f.Submissions, &f.Template, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FormStore) CreateForm(f *domain.Form) error {
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Content == "" {
		f.Content = "[]"
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO forms (`+formColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Description, f.Published, f.Content, f.ShareURL, f.Visits, f.Submissions, f.Template, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert form: %w", err)
	}
	return nil
}

func (s *FormStore) GetForm(id string) (*domain.Form, error) {
	f, err := scanForm(s.db.Conn().QueryRow(`SELECT `+formColumns+` FROM forms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("form %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

func (s *FormStore) GetFormByShareURL(shareURL string) (*domain.Form, error) {
	f, err := scanForm(s.db.Conn().QueryRow(`SELECT `+formColumns+` FROM forms WHERE share_url = ?`, shareURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("form with share url %s: %w", shareURL, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get form by share url: %w", err)
	}
	return f, nil
}

func (s *FormStore) ListForms() ([]domain.Form, error) {
	rows, err := s.db.Conn().Query(`SELECT ` + formColumns + ` FROM forms ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []domain.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *f)
	}
	return forms, rows.Err()
}

// UpdateContent stores a new serialized definition. Published forms are
// frozen and left untouched.
func (s *FormStore) UpdateContent(id, content string) error {
	res, err := s.db.Conn().Exec(
		`UPDATE forms SET content = ?, updated_at = ? WHERE id = ? AND published = 0`,
		content, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update form content: %w", err)
	}
	return expectRow(res, "form "+id)
}

func (s *FormStore) SetPublished(id string) error {
	res, err := s.db.Conn().Exec(
		`UPDATE forms SET published = 1, updated_at = ? WHERE id = ?`, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("publish form: %w", err)
	}
	return expectRow(res, "form "+id)
}

func (s *FormStore) IncrementVisits(id string) error {
	res, err := s.db.Conn().Exec(`UPDATE forms SET visits = visits + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment visits: %w", err)
	}
	return expectRow(res, "form "+id)
}

// DeleteForm removes a form with its submissions, history and export destinations.
func (s *FormStore) DeleteForm(id string) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM form_submissions WHERE form_id = ?`,
		`DELETE FROM designer_history_state WHERE form_id = ?`,
		`DELETE FROM designer_history WHERE form_id = ?`,
		`DELETE FROM export_destinations WHERE form_id = ?`,
		`DELETE FROM forms WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete form %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Fingerprint summarizes the forms table. It changes whenever a form is
// created, edited, deleted or receives a submission.
func (s *FormStore) Fingerprint() (string, error) {
	var count, subs int
	var updated string
	err := s.db.Conn().QueryRow(
		`SELECT COUNT(*), COALESCE(CAST(MAX(updated_at) AS TEXT), ''), COALESCE(SUM(submissions), 0) FROM forms`,
	).Scan(&count, &updated, &subs)
	if err != nil {
		return "", fmt.Errorf("forms fingerprint: %w", err)
	}
	return fmt.Sprintf("%d:%s:%d", count, updated, subs), nil
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
