package utils

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NanoToTime converts a nanosecond Unix timestamp to time.Time.
func NanoToTime(ns int64) time.Time {
	return time.Unix(0, ns)
}

// FormatTimestamp renders ns-epoch as RFC 3339 with nanoseconds in UTC.
func FormatTimestamp(ns int64) string {
	return NanoToTime(ns).UTC().Format(time.RFC3339Nano)
}

// NewRunID returns a unique identifier for one parse run.
func NewRunID() string {
	return uuid.NewString()
}

// InputStem returns the base name of path without compression suffixes
// and without its last remaining extension:
//
//	/var/log/ss_trace.log.zst -> ss_trace
func InputStem(path string) string {
	base := filepath.Base(path)
	for {
		ext := filepath.Ext(base)
		if ext == "" || !IsCompressedExt(ext) {
			break
		}
		base = strings.TrimSuffix(base, ext)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultOutputPath derives the export path used when none is given:
//
//	parsed_<stem>.<ext>
func DefaultOutputPath(input, ext string) string {
	return fmt.Sprintf("parsed_%s.%s", InputStem(input), ext)
}

// ParseTimeOffset accepts "HH:MM:SS" or a plain number of seconds and returns
// the offset in seconds.
func ParseTimeOffset(s string) (float64, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return float64(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("time must be in 'HH:MM:SS' format or number of seconds, not %q", s)
	}
	return v, nil
}
