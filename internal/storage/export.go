package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"formbuilder/internal/domain"
)

const destinationColumns = `id, form_id, name, driver, host, port, database_name, username, ssl_mode, table_name, schedule, enabled, last_export, created_at, updated_at`

// ExportDestinationStore implements domain.ExportDestinationStore using SQLite.
type ExportDestinationStore struct {
	db *DB
}

func NewExportDestinationStore(db *DB) *ExportDestinationStore {
	return &ExportDestinationStore{db: db}
}

func scanDestination(row scanner) (*domain.ExportDestination, error) {
	d := &domain.ExportDestination{}
	err := row.Scan(&d.ID, &d.FormID, &d.Name, &d.Driver, &d.Host, &d.Port, &d.Database, &d.Username,
		&d.SSLMode, &d.Table, &d.Schedule, &d.Enabled, &d.LastExport, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *ExportDestinationStore) CreateDestination(d *domain.ExportDestination) error {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.LastExport.IsZero() {
		d.LastExport = time.Unix(0, 0).UTC()
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO export_destinations (`+destinationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FormID, d.Name, d.Driver, d.Host, d.Port, d.Database, d.Username, d.SSLMode,
		d.Table, d.Schedule, d.Enabled, d.LastExport.UTC(), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert export destination: %w", err)
	}
	return nil
}

func (s *ExportDestinationStore) GetDestination(id string) (*domain.ExportDestination, error) {
	d, err := scanDestination(s.db.Conn().QueryRow(
		`SELECT `+destinationColumns+` FROM export_destinations WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export destination %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get export destination: %w", err)
	}
	return d, nil
}

func (s *ExportDestinationStore) ListDestinations(formID string) ([]domain.ExportDestination, error) {
	return s.list(`SELECT `+destinationColumns+` FROM export_destinations WHERE form_id = ? ORDER BY name`, formID)
}

// ListScheduledDestinations returns the enabled destinations that carry a cron schedule.
func (s *ExportDestinationStore) ListScheduledDestinations() ([]domain.ExportDestination, error) {
	return s.list(`SELECT ` + destinationColumns + ` FROM export_destinations WHERE enabled = 1 AND schedule != '' ORDER BY name`)
}

func (s *ExportDestinationStore) list(q string, args ...any) ([]domain.ExportDestination, error) {
	rows, err := s.db.Conn().Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list export destinations: %w", err)
	}
	defer rows.Close()

	var out []domain.ExportDestination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *ExportDestinationStore) UpdateDestination(d *domain.ExportDestination) error {
	d.UpdatedAt = time.Now()
	res, err := s.db.Conn().Exec(
		`UPDATE export_destinations SET name=?, driver=?, host=?, port=?, database_name=?, username=?, ssl_mode=?,
		 table_name=?, schedule=?, enabled=?, updated_at=? WHERE id=?`,
		d.Name, d.Driver, d.Host, d.Port, d.Database, d.Username, d.SSLMode,
		d.Table, d.Schedule, d.Enabled, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update export destination: %w", err)
	}
	return expectRow(res, "export destination "+d.ID)
}

func (s *ExportDestinationStore) MarkExported(id string, at time.Time) error {
	_, err := s.db.Conn().Exec(
		`UPDATE export_destinations SET last_export = ? WHERE id = ?`, at.UTC(), id,
	)
	return err
}

func (s *ExportDestinationStore) DeleteDestination(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM export_destinations WHERE id = ?`, id)
	return err
}
