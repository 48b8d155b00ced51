package views

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"sstab/models"
	"sstab/utils"
)

// Column names the flattener always adds.
const (
	ColumnTimestamp = "timestamp"
	ColumnDatetime  = "datetime"
)

// DefaultNestedPrefix is prepended to nested group keys when flattening.
const DefaultNestedPrefix = "nested_"

// Table is a set of flattened rows aligned to one shared column set.
// Columns is sorted lexicographically and is therefore independent of row order.
type Table struct {
	Columns []string
	Rows    []models.TableRow
}

type flattenOptions struct {
	nestedPrefix   string
	datetime       bool
	datetimeLayout string // empty renders utils.FormatTimestamp
}

// FlattenOption customises Flatten.
type FlattenOption func(*flattenOptions)

// WithNestedPrefix sets the prefix applied to nested keys ("bbr_" reproduces
// the historical column names).
func WithNestedPrefix(prefix string) FlattenOption {
	return func(o *flattenOptions) {
		if prefix != "" {
			o.nestedPrefix = prefix
		}
	}
}

// WithDatetimeColumn adds a "datetime" text column rendering the timestamp
// in UTC with layout (RFC 3339 with nanoseconds when empty).
func WithDatetimeColumn(layout string) FlattenOption {
	return func(o *flattenOptions) {
		o.datetime = true
		o.datetimeLayout = layout
	}
}

func (o *flattenOptions) formatDatetime(ns int64) string {
	if o.datetimeLayout == "" {
		return utils.FormatTimestamp(ns)
	}
	return utils.NanoToTime(ns).UTC().Format(o.datetimeLayout)
}

// Flatten turns records into rows and computes the union of their columns.
// Each row holds the record fields, the nested keys under the nested prefix,
// and the timestamp. Nested entries win over colliding fields; the timestamp
// column always wins.
func Flatten(records []models.LineRecord, opts ...FlattenOption) *Table {
	o := flattenOptions{nestedPrefix: DefaultNestedPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table{Rows: make([]models.TableRow, 0, len(records))}
	seen := make(map[string]struct{})

	for i := range records {
		rec := &records[i]
		row := make(models.TableRow, rec.Fields.Len()+rec.Nested.Len()+2)

		rec.Fields.Range(func(k string, v models.Value) bool {
			row[k] = v
			return true
		})
		if rec.HasNested() {
			rec.Nested.Range(func(k string, v models.Value) bool {
				row[o.nestedPrefix+k] = v
				return true
			})
		}
		row[ColumnTimestamp] = models.Int(rec.TimestampNs)
		if o.datetime {
			row[ColumnDatetime] = models.Text(o.formatDatetime(rec.TimestampNs))
		}

		for k := range row {
			seen[k] = struct{}{}
		}
		t.Rows = append(t.Rows, row)
	}

	t.Columns = make([]string, 0, len(seen))
	for k := range seen {
		t.Columns = append(t.Columns, k)
	}
	sort.Strings(t.Columns)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Cells returns row i aligned to Columns; absent cells are "".
func (t *Table) Cells(i int) []string {
	return t.Rows[i].CSVRow(t.Columns)
}

// Fingerprint hashes the column set so runs with identical schemas can be
// recognised without comparing headers.
func (t *Table) Fingerprint() uint64 {
	d := xxhash.New()
	for _, c := range t.Columns {
		_, _ = d.WriteString(c)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
