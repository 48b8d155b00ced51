package views

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"sstab/utils"
)

// TableExporter persists a flattened table.
type TableExporter interface {
	Export(t *Table) error
	Close() error
}

// CSVWriter is a buffered CSV writer. The underlying file is compressed
// when the path ends in .zst or .lz4.
type CSVWriter struct {
	mu   sync.Mutex
	out  io.WriteCloser
	buf  *bufio.Writer
	csv  *csv.Writer
	rows uint64
}

// NewCSVWriter creates path and prepares a writer with a buffer of
// bufSizeBytes (256 KB when <= 0).
func NewCSVWriter(path string, bufSizeBytes int) (*CSVWriter, error) {
	out, err := utils.CreateOutput(path)
	if err != nil {
		return nil, fmt.Errorf("csv create %s: %w", path, err)
	}
	if bufSizeBytes <= 0 {
		bufSizeBytes = 256 * 1024
	}
	bw := bufio.NewWriterSize(out, bufSizeBytes)
	return &CSVWriter{out: out, buf: bw, csv: csv.NewWriter(bw)}, nil
}

// NewCSVStreamWriter writes CSV to w. Close flushes but does not close w.
func NewCSVStreamWriter(w io.Writer) *CSVWriter {
	bw := bufio.NewWriter(w)
	return &CSVWriter{out: nopCloser{w}, buf: bw, csv: csv.NewWriter(bw)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader(header []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("csv write header: %w", err)
	}
	return nil
}

// WriteRow appends a single data row.
func (w *CSVWriter) WriteRow(row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("csv write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Export writes the header and every row of t.
func (w *CSVWriter) Export(t *Table) error {
	if err := w.WriteHeader(t.Columns); err != nil {
		return err
	}
	for i := range t.Rows {
		if err := w.WriteRow(t.Cells(i)); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush pushes buffered rows to the underlying writer.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return w.buf.Flush()
}

// Close flushes remaining data and closes the output.
func (w *CSVWriter) Close() error {
	if err := w.Flush(); err != nil {
		_ = w.out.Close()
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Close()
}

// Rows returns the number of data rows written (excludes header).
func (w *CSVWriter) Rows() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

var _ TableExporter = (*CSVWriter)(nil)
