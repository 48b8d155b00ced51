package views

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"sstab/models"
	"sstab/utils"
)

// arrowBatchRows bounds the rows per IPC record batch.
const arrowBatchRows = 64 * 1024

// ArrowWriter exports a table as an Arrow IPC file with one typed,
// nullable column per table column.
type ArrowWriter struct {
	out io.WriteCloser
	mem memory.Allocator
}

// NewArrowWriter creates path for Arrow output.
func NewArrowWriter(path string) (*ArrowWriter, error) {
	out, err := utils.CreateOutput(path)
	if err != nil {
		return nil, fmt.Errorf("arrow create %s: %w", path, err)
	}
	return &ArrowWriter{out: out, mem: memory.NewGoAllocator()}, nil
}

// ArrowSchema infers the column types of t: Int64 when every present cell
// is an integer, Float64 when every present cell is numeric, Utf8 otherwise.
func ArrowSchema(t *Table) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c, Type: columnType(t, c), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func columnType(t *Table, column string) arrow.DataType {
	allInt, allNum := true, true
	for _, row := range t.Rows {
		v, ok := row[column]
		if !ok {
			continue
		}
		if v.Kind != models.KindInt {
			allInt = false
		}
		if !v.IsNumeric() {
			allNum = false
			break
		}
	}
	switch {
	case allInt && allNum:
		return arrow.PrimitiveTypes.Int64
	case allNum:
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

// Export writes t as one or more record batches.
func (w *ArrowWriter) Export(t *Table) error {
	schema := ArrowSchema(t)
	fw, err := ipc.NewFileWriter(w.out, ipc.WithSchema(schema), ipc.WithAllocator(w.mem))
	if err != nil {
		return fmt.Errorf("arrow writer: %w", err)
	}

	bld := array.NewRecordBuilder(w.mem, schema)
	defer bld.Release()

	for start := 0; start < len(t.Rows); start += arrowBatchRows {
		end := min(start+arrowBatchRows, len(t.Rows))
		for _, row := range t.Rows[start:end] {
			for i, c := range t.Columns {
				appendCell(bld.Field(i), row, c)
			}
		}
		rec := bld.NewRecord()
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			_ = fw.Close()
			return fmt.Errorf("arrow write batch at row %d: %w", start, err)
		}
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("arrow close: %w", err)
	}
	return nil
}

func appendCell(b array.Builder, row models.TableRow, column string) {
	v, ok := row[column]
	if !ok {
		b.AppendNull()
		return
	}
	switch fb := b.(type) {
	case *array.Int64Builder:
		fb.Append(v.Int)
	case *array.Float64Builder:
		n, _ := v.Number()
		fb.Append(n)
	case *array.StringBuilder:
		fb.Append(v.String())
	}
}

// Close closes the output file.
func (w *ArrowWriter) Close() error {
	return w.out.Close()
}

var _ TableExporter = (*ArrowWriter)(nil)
