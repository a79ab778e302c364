// Package export copies form submissions into external databases.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"formbuilder/internal/domain"
)

// Sink writes submissions of one form to an external store.
type Sink interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Write stores the submissions and returns how many were written.
	Write(ctx context.Context, def domain.FormDefinition, subs []domain.Submission) (int, error)

	Close() error
}

// Open connects to the destination. The password comes from the SecretStore.
func Open(dest *domain.ExportDestination, password string) (Sink, error) {
	if dest.Table == "" {
		return nil, fmt.Errorf("export destination %s: empty table name", dest.ID)
	}
	switch dest.Driver {
	case domain.ExportDriverSQLite:
		return newSQLSink(dest, "sqlite", buildSQLiteDSN(dest))
	case domain.ExportDriverMySQL:
		return newSQLSink(dest, "mysql", buildMySQLDSN(dest, password))
	case domain.ExportDriverPostgres:
		return newSQLSink(dest, "postgres", buildPostgresDSN(dest, password))
	case domain.ExportDriverMongoDB:
		return newMongoSink(dest, password)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dest.Driver)
	}
}

// Column maps an input field to the column holding its value.
type Column struct {
	Name    string `json:"name"`
	FieldID string `json:"fieldId"`
}

// Columns derives one column per input field, named after its label.
// Layout elements carry no value and get no column.
func Columns(def domain.FormDefinition) []Column {
	used := map[string]int{"submission_id": 1, "form_id": 1, "submitted_at": 1}
	var cols []Column
	for i, f := range def {
		if f.Kind.IsLayout() {
			continue
		}
		name := columnName(labelOf(f))
		if name == "" {
			name = fmt.Sprintf("field_%d", i+1)
		}
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		used[name]++
		cols = append(cols, Column{Name: name, FieldID: f.ID})
	}
	return cols
}

func labelOf(f domain.FieldInstance) string {
	switch a := f.Attributes.(type) {
	case interface{ Input() domain.InputAttributes }:
		return a.Input().Label
	case interface{ Choice() domain.ChoiceAttributes }:
		return a.Choice().Label
	}
	return ""
}

// columnName lowercases s and collapses every non alphanumeric run into "_".
func columnName(s string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}
	name := b.String()
	if name != "" && unicode.IsDigit(rune(name[0])) {
		name = "f_" + name
	}
	return name
}

// Row is one submission flattened onto the columns.
type Row struct {
	SubmissionID string
	FormID       string
	SubmittedAt  string
	Values       []string
}

// Rows decodes the submissions and lines their values up with cols.
func Rows(cols []Column, subs []domain.Submission) ([]Row, error) {
	rows := make([]Row, 0, len(subs))
	for _, s := range subs {
		values, err := domain.UnmarshalValues(s.Content)
		if err != nil {
			return nil, fmt.Errorf("submission %s: %w", s.ID, err)
		}
		row := Row{
			SubmissionID: s.ID,
			FormID:       s.FormID,
			SubmittedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
			Values:       make([]string, len(cols)),
		}
		for i, c := range cols {
			row.Values[i] = values[c.FieldID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
