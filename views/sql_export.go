package views

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
)

// SQLWriter exports a table to a Postgres table of (ts, cells) rows, where
// cells is a JSONB object holding every present cell of the row.
type SQLWriter struct {
	db          *sql.DB
	table       string
	batchSize   int
	createTable bool
}

// NewSQLWriter returns a writer inserting into table in batches of batchSize
// rows (500 when <= 0). With createTable the table is created if missing.
func NewSQLWriter(db *sql.DB, table string, batchSize int, createTable bool) *SQLWriter {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &SQLWriter{db: db, table: table, batchSize: batchSize, createTable: createTable}
}

// Export writes t using a background context.
func (w *SQLWriter) Export(t *Table) error {
	return w.ExportContext(context.Background(), t)
}

// ExportContext writes every row of t.
func (w *SQLWriter) ExportContext(ctx context.Context, t *Table) error {
	if w.createTable {
		if err := w.ensureTable(ctx); err != nil {
			return err
		}
	}
	for start := 0; start < len(t.Rows); start += w.batchSize {
		end := min(start+w.batchSize, len(t.Rows))
		if err := w.insertBatch(ctx, t, start, end); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}

func (w *SQLWriter) ensureTable(ctx context.Context) error {
	q := "CREATE TABLE IF NOT EXISTS " + pq.QuoteIdentifier(w.table) +
		" (ts BIGINT NOT NULL, cells JSONB NOT NULL)"
	if _, err := w.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", w.table, err)
	}
	return nil
}

func (w *SQLWriter) insertBatch(ctx context.Context, t *Table, start, end int) error {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pq.QuoteIdentifier(w.table))
	b.WriteString(" (ts, cells) VALUES ")

	args := make([]any, 0, (end-start)*2)
	for i, row := range t.Rows[start:end] {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "($%d,$%d)", len(args)+1, len(args)+2)

		cells, err := json.Marshal(row.JSONObject())
		if err != nil {
			return fmt.Errorf("marshal cells: %w", err)
		}
		args = append(args, row[ColumnTimestamp].Int, string(cells))
	}

	_, err := w.db.ExecContext(ctx, b.String(), args...)
	return err
}

// Close is a no-op; the caller owns the database handle.
func (w *SQLWriter) Close() error { return nil }

var _ TableExporter = (*SQLWriter)(nil)
