package models

import "time"

// RawLine is one unparsed input line with its 1-based position in the input.
type RawLine struct {
	Number int
	Text   string
}

// LineRecord is one decoded connection-statistics line.
type LineRecord struct {
	TimestampNs int64   `json:"timestamp_ns"` // time:<ns> token
	Fields      *Fields `json:"-"`            // top-level key:value tokens, "time" excluded
	Nested      *Fields `json:"-"`            // congestion-control group; nil when absent
}

// Time returns the record timestamp as wall-clock time.
func (r *LineRecord) Time() time.Time {
	return time.Unix(0, r.TimestampNs)
}

// HasNested reports whether the record carries a non-empty nested group.
func (r *LineRecord) HasNested() bool {
	return r.Nested.Len() > 0
}

// ParseFailure describes a line that could not be decoded.
type ParseFailure struct {
	Line  int    `json:"line"`
	Cause string `json:"cause"`
	Text  string `json:"text,omitempty"`
}

// BatchResult is everything one parse pass produced, in input order.
type BatchResult struct {
	Records  []LineRecord
	Failures []ParseFailure
	Blank    int
}

// Parsed returns the number of decoded records.
func (b *BatchResult) Parsed() int { return len(b.Records) }

// Failed returns the number of lines that could not be decoded.
func (b *BatchResult) Failed() int { return len(b.Failures) }

// Span returns the first and last record timestamps and the duration
// between them. ok is false when there are no records.
func (b *BatchResult) Span() (first, last time.Time, ok bool) {
	if len(b.Records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return b.Records[0].Time(), b.Records[len(b.Records)-1].Time(), true
}
