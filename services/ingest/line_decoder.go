package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"sstab/models"
)

// DefaultNestedLabel is the congestion-control group emitted by ss -i for BBR.
const DefaultNestedLabel = "bbr"

// timestampKey is the mandatory token; it is lifted into LineRecord.TimestampNs
// and never kept among the fields.
const timestampKey = "time"

var (
	// ErrMissingTimestamp is returned for lines without a time:<digits> token.
	ErrMissingTimestamp = errors.New("missing timestamp")
	// ErrInvalidTimestamp is returned when the time digits overflow int64.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

var (
	timestampPattern = regexp.MustCompile(`time:(\d+)`)
	pairPattern      = regexp.MustCompile(`(\w+):(\S+)`)
)

// LineDecoder turns one raw line into a LineRecord. It holds no mutable
// state and is safe for concurrent use.
type LineDecoder struct {
	typer *Typer
	label string
}

// NewLineDecoder returns a decoder for the given nested group label
// (DefaultNestedLabel when empty) and typer (the default typer when nil).
func NewLineDecoder(typer *Typer, label string) *LineDecoder {
	if typer == nil {
		typer = defaultTyper
	}
	if label == "" {
		label = DefaultNestedLabel
	}
	return &LineDecoder{typer: typer, label: label}
}

// Label returns the nested group label this decoder extracts.
func (d *LineDecoder) Label() string { return d.label }

// Decode parses line. The only reasons it fails are a missing or
// unrepresentable timestamp; every other anomaly degrades to Text values or
// dropped nested sub-fields.
func (d *LineDecoder) Decode(line string) (models.LineRecord, error) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return models.LineRecord{}, ErrMissingTimestamp
	}
	ts, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return models.LineRecord{}, fmt.Errorf("%w: %s", ErrInvalidTimestamp, m[1])
	}

	nested, residual := d.typer.ExtractGroup(line, d.label)

	pairs := pairPattern.FindAllStringSubmatch(residual, -1)
	fields := models.NewFields(len(pairs))
	for _, p := range pairs {
		if p[1] == timestampKey {
			continue
		}
		fields.Set(p[1], d.typer.Type(p[2]))
	}

	rec := models.LineRecord{TimestampNs: ts, Fields: fields}
	if nested.Len() > 0 {
		rec.Nested = nested
	}
	return rec, nil
}
