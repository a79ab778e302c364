package export

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"formbuilder/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// insertBatch bounds the rows per INSERT statement.
const insertBatch = 100

// sqlSink writes submissions into a relational table, one column per field.
type sqlSink struct {
	table   string
	dialect string
	db      *sql.DB
	drv     *entsql.Driver
}

func newSQLSink(dest *domain.ExportDestination, driverName, dsn string) (*sqlSink, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	d := dialectOf(dest.Driver)
	return &sqlSink{
		table:   dest.Table,
		dialect: d,
		db:      db,
		drv:     entsql.OpenDB(d, db),
	}, nil
}

func dialectOf(driver domain.ExportDriver) string {
	switch driver {
	case domain.ExportDriverMySQL:
		return dialect.MySQL
	case domain.ExportDriverPostgres:
		return dialect.Postgres
	default:
		return dialect.SQLite
	}
}

func (s *sqlSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlSink) Write(ctx context.Context, def domain.FormDefinition, subs []domain.Submission) (int, error) {
	if len(subs) == 0 {
		return 0, nil
	}
	cols := Columns(def)
	rows, err := Rows(cols, subs)
	if err != nil {
		return 0, err
	}

	query, args := CreateTableQuery(s.dialect, s.table, cols)
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return 0, fmt.Errorf("create table %s: %w", s.table, err)
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	written := 0
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		query, args := InsertQuery(s.dialect, s.table, cols, rows[start:end])
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert into %s: %w", s.table, err)
		}
		written += end - start
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	log.Printf("[EXPORT] wrote %d rows to %s (%s)", written, s.table, s.dialect)
	return written, nil
}

func (s *sqlSink) Close() error {
	return s.drv.Close()
}

// CreateTableQuery builds the idempotent DDL for the export table.
func CreateTableQuery(d, table string, cols []Column) (string, []any) {
	columns := []entsql.Querier{
		entsql.Column("submission_id").Type("varchar(64)"),
		entsql.Column("form_id").Type("varchar(64)"),
		entsql.Column("submitted_at").Type("varchar(40)"),
	}
	for _, c := range cols {
		columns = append(columns, entsql.Column(c.Name).Type("text"))
	}
	query := entsql.Dialect(d).String(func(b *entsql.Builder) {
		b.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(table).Pad().Wrap(func(b *entsql.Builder) {
			b.JoinComma(columns...)
			b.Comma().WriteString("PRIMARY KEY").Wrap(func(b *entsql.Builder) {
				b.Ident("submission_id")
			})
		})
	})
	return query, nil
}

// InsertQuery builds a multi-row INSERT with dialect specific placeholders.
func InsertQuery(d, table string, cols []Column, rows []Row) (string, []any) {
	names := []string{"submission_id", "form_id", "submitted_at"}
	for _, c := range cols {
		names = append(names, c.Name)
	}
	ins := entsql.Dialect(d).Insert(table).Columns(names...)
	for _, r := range rows {
		values := []any{r.SubmissionID, r.FormID, r.SubmittedAt}
		for _, v := range r.Values {
			values = append(values, v)
		}
		ins.Values(values...)
	}
	return ins.Query()
}
