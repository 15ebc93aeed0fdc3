package model

import (
	"math"
	"strconv"
	"strings"
)

// RawLine is a single line read from a log file.
type RawLine struct {
	Text   string `json:"text"`
	Source string `json:"source"` // originating file path
	Number int    `json:"number"` // 1-based line number
}

// Keys recognized by the classifier.
const (
	KeyDate     = "Date"
	KeyDownload = "Download"
	KeyUpload   = "Upload"
)

// EntryKind tells a date entry from a numeric one.
type EntryKind int

const (
	KindDate EntryKind = iota
	KindNumeric
)

func (k EntryKind) String() string {
	if k == KindDate {
		return "date"
	}
	return "numeric"
}

// Entry is a classified "Key: value" line.
type Entry struct {
	Key    string    `json:"key"`
	Value  string    `json:"value"`            // trimmed text after the first colon
	Number float64   `json:"number,omitempty"` // parsed value for numeric entries
	Kind   EntryKind `json:"-"`
	Line   int       `json:"line"`
}

// IsDate reports whether the entry holds a date.
func (e Entry) IsDate() bool {
	return e.Kind == KindDate
}

// Field renders the entry as a CSV field. Numbers use the shortest
// representation that round-trips, always keeping a fractional part.
func (e Entry) Field() string {
	if e.Kind == KindDate {
		return e.Value
	}
	return FormatFloat(e.Number)
}

// FormatFloat formats v so that 50 becomes "50.0" and 123.45 stays "123.45".
// Exponent notation is used below 1e-4 and from 1e16 upward.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
