// Package metrics normalizes the numeric values found in ecosystem
// statistics: thousand-separated counts, plain integers, and byte sizes
// like "12.4 MB". Parsed values render back through the same unit family
// they arrived in.
package metrics

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Value is one normalized statistic value. Exactly one of the Is flags is
// set for recognized forms; unrecognized values keep only Raw.
type Value struct {
	// Raw is the value as scraped, whitespace-trimmed.
	Raw string

	// Count holds the normalized number for integer-like values.
	Count int64

	// Bytes holds the normalized byte count for size-like values.
	Bytes uint64

	IsCount bool
	IsBytes bool
}

// ParseValue normalizes a scraped statistics value. Integer-like values
// (with or without thousand separators) become counts; values with a size
// unit become byte counts; everything else is kept raw.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	v := Value{Raw: s}

	if n, err := ParseCount(s); err == nil {
		v.Count, v.IsCount = n, true
		return v
	}
	if hasUnit(s) {
		if b, err := humanize.ParseBytes(s); err == nil {
			v.Bytes, v.IsBytes = b, true
			return v
		}
	}
	return v
}

// ParseCount parses an integer that may carry thousand separators,
// e.g. "1,234".
func ParseCount(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}

// FormatCount renders a count with thousand separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatBytes renders a byte count in its symbolic unit, e.g. "12 MB".
func FormatBytes(n uint64) string {
	return humanize.Bytes(n)
}

// String renders the value for display, using the unit family it was
// parsed from.
func (v Value) String() string {
	switch {
	case v.IsBytes:
		return FormatBytes(v.Bytes)
	case v.IsCount:
		return FormatCount(v.Count)
	default:
		return v.Raw
	}
}

// hasUnit reports whether the value carries a textual unit suffix. Plain
// "12.4" stays raw rather than being misread as 12 bytes.
func hasUnit(s string) bool {
	return strings.ContainsFunc(s, unicode.IsLetter)
}
