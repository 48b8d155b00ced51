package models

import "strconv"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindText Kind = iota
	KindFloat
	// KindInt is produced only for the record timestamp when it is flattened
	// into a table row; token typing never yields it.
	KindInt
)

var kindNames = map[Kind]string{
	KindText:  "text",
	KindFloat: "float",
	KindInt:   "int",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Value is a typed scalar decoded from a single token.
type Value struct {
	Kind  Kind
	Float float64
	Int   int64
	Text  string
}

// Float returns a floating-point Value.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Int returns an integer Value.
func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Text returns a string Value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// IsNumeric reports whether the value holds a number.
func (v Value) IsNumeric() bool { return v.Kind == KindFloat || v.Kind == KindInt }

// Number returns the value as float64. Text values yield (0, false).
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.Float, true
	case KindInt:
		return float64(v.Int), true
	}
	return 0, false
}

// String renders the value as a table cell.
func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return ftoa(v.Float)
	case KindInt:
		return itoa64(v.Int)
	}
	return v.Text
}

// Any returns the value as a plain Go value for JSON encoding.
func (v Value) Any() any {
	switch v.Kind {
	case KindFloat:
		return v.Float
	case KindInt:
		return v.Int
	}
	return v.Text
}

func itoa64(v int64) string { return strconv.FormatInt(v, 10) }
func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
