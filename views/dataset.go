package views

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"sstab/utils"
)

// Dataset is an exported CSV table read back as strings.
type Dataset struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// ReadDataset loads a CSV file written by CSVWriter (compressed or not).
func ReadDataset(path string) (*Dataset, error) {
	in, err := utils.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	ds, err := ParseDataset(in)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// ParseDataset reads CSV with a header row from r.
func ParseDataset(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, err
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Columns: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, c := range header {
		ds.index[c] = i
	}
	return ds, nil
}

// HasColumn reports whether column exists.
func (d *Dataset) HasColumn(column string) bool {
	_, ok := d.index[column]
	return ok
}

// SortedColumns returns the column names in lexicographic order.
func (d *Dataset) SortedColumns() []string {
	out := append([]string(nil), d.Columns...)
	sort.Strings(out)
	return out
}

// Number returns the numeric value of column in row. Empty or non-numeric
// cells yield ok == false.
func (d *Dataset) Number(row int, column string) (float64, bool) {
	i, ok := d.index[column]
	if !ok || i >= len(d.Rows[row]) || d.Rows[row][i] == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(d.Rows[row][i], 64)
	return v, err == nil
}

// Timestamp returns the integer timestamp of row.
func (d *Dataset) Timestamp(row int) (int64, bool) {
	i, ok := d.index[ColumnTimestamp]
	if !ok || i >= len(d.Rows[row]) {
		return 0, false
	}
	v, err := strconv.ParseInt(d.Rows[row][i], 10, 64)
	return v, err == nil
}
