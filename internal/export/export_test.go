package export_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/domain"
	"formbuilder/internal/export"
)

func sampleDefinition() domain.FormDefinition {
	text := func(label string) domain.TextAttributes {
		return domain.TextAttributes{InputAttributes: domain.InputAttributes{Label: label}}
	}
	return domain.FormDefinition{
		domain.NewFieldInstance("t", domain.TitleAttributes{Title: "Signup"}),
		domain.NewFieldInstance("a", text("Full name")),
		domain.NewFieldInstance("b", text("Full  name!")),
		domain.NewFieldInstance("c", domain.CheckboxAttributes{ChoiceAttributes: domain.ChoiceAttributes{Label: "1st visit"}}),
		domain.NewFieldInstance("d", text("???")),
	}
}

func TestColumns(t *testing.T) {
	cols := export.Columns(sampleDefinition())
	assert.Equal(t, []export.Column{
		{Name: "full_name", FieldID: "a"},
		{Name: "full_name_2", FieldID: "b"},
		{Name: "f_1st_visit", FieldID: "c"},
		{Name: "field_5", FieldID: "d"},
	}, cols)
}

func TestRows(t *testing.T) {
	cols := export.Columns(sampleDefinition())
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.FixedZone("x", 3600))
	rows, err := export.Rows(cols, []domain.Submission{
		{ID: "s1", FormID: "f1", Content: `{"a":"Ada","c":"true"}`, CreatedAt: at},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-05-01T07:30:00Z", rows[0].SubmittedAt)
	assert.Equal(t, []string{"Ada", "", "true", ""}, rows[0].Values)

	_, err = export.Rows(cols, []domain.Submission{{ID: "bad", Content: "{"}})
	assert.Error(t, err)
}

func TestQueries(t *testing.T) {
	cols := []export.Column{{Name: "email", FieldID: "e"}}

	ddl, _ := export.CreateTableQuery(dialect.Postgres, "subs", cols)
	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "subs"`)
	assert.Contains(t, ddl, `"email" text`)
	assert.Contains(t, ddl, `"submission_id" varchar(64), "form_id" varchar(64)`)
	assert.True(t, strings.HasSuffix(ddl, `, PRIMARY KEY("submission_id"))`), ddl)

	ddl, _ = export.CreateTableQuery(dialect.MySQL, "subs", cols)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `subs` (`submission_id` varchar(64), `form_id` varchar(64), `submitted_at` varchar(40), `email` text, PRIMARY KEY(`submission_id`))", ddl)

	rows := []export.Row{
		{SubmissionID: "s1", FormID: "f", SubmittedAt: "t1", Values: []string{"a@x"}},
		{SubmissionID: "s2", FormID: "f", SubmittedAt: "t2", Values: []string{"b@x"}},
	}
	q, args := export.InsertQuery(dialect.Postgres, "subs", cols, rows)
	assert.Contains(t, q, `INSERT INTO "subs"`)
	assert.Contains(t, q, "$8")
	assert.Equal(t, []any{"s1", "f", "t1", "a@x", "s2", "f", "t2", "b@x"}, args)

	q, _ = export.InsertQuery(dialect.MySQL, "subs", cols, rows[:1])
	assert.Contains(t, q, "INSERT INTO `subs`")
	assert.NotContains(t, q, "$1")
}

func TestOpen_Validation(t *testing.T) {
	_, err := export.Open(&domain.ExportDestination{ID: "d", Driver: domain.ExportDriverSQLite}, "")
	assert.Error(t, err)

	_, err = export.Open(&domain.ExportDestination{ID: "d", Driver: "oracle", Table: "x"}, "")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestSQLiteSink_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	sink, err := export.Open(&domain.ExportDestination{
		ID: "d1", Driver: domain.ExportDriverSQLite, Host: path, Table: "signups",
	}, "")
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.Ping(ctx))

	n, err := sink.Write(ctx, sampleDefinition(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	subs := []domain.Submission{
		{ID: "s1", FormID: "f1", Content: `{"a":"Ada"}`, CreatedAt: time.Now()},
		{ID: "s2", FormID: "f1", Content: `{"a":"Grace","c":"true"}`, CreatedAt: time.Now()},
	}
	n, err = sink.Write(ctx, sampleDefinition(), subs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var name, visit string
	require.NoError(t, db.QueryRow(`SELECT full_name, f_1st_visit FROM signups WHERE submission_id = 's2'`).Scan(&name, &visit))
	assert.Equal(t, "Grace", name)
	assert.Equal(t, "true", visit)
}
