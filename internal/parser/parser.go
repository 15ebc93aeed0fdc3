package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kindaran/pia-stats/internal/errs"
	"github.com/kindaran/pia-stats/internal/model"
)

// DefaultKeywords selects the lines a speedtest run writes to its log.
var DefaultKeywords = []string{model.KeyDate, model.KeyDownload, model.KeyUpload}

var (
	errNoSeparator = errors.New("missing ':' separator")
	errNoValue     = errors.New("missing numeric value")
)

// ---------------------------------------------------------------------------
// Line splitting and keyword filter
// ---------------------------------------------------------------------------

// SplitLines breaks text into lines on '\n', numbering them from 1.
// A trailing '\r' is left in place; classification trims it away.
func SplitLines(text, source string) []model.RawLine {
	parts := strings.Split(text, "\n")
	lines := make([]model.RawLine, len(parts))
	for i, p := range parts {
		lines[i] = model.RawLine{Text: p, Source: source, Number: i + 1}
	}
	return lines
}

// Filter keeps the lines containing at least one keyword as a plain
// substring. Matching is case-sensitive and not word-aware, so "Uploading"
// matches "Upload". Input order is preserved.
func Filter(lines []model.RawLine, keywords []string) []model.RawLine {
	var kept []model.RawLine
	for _, line := range lines {
		if Matches(line.Text, keywords) {
			kept = append(kept, line)
		}
	}
	return kept
}

// Matches reports whether s contains any of the keywords.
func Matches(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// Classify turns a "Key: value" line into an Entry. A "Date" key yields a
// date entry holding the trimmed value; any other key yields a numeric entry
// holding the first whitespace-delimited token of the value as a float.
func Classify(line model.RawLine) (model.Entry, error) {
	key, value, ok := strings.Cut(line.Text, ":")
	if !ok {
		return model.Entry{}, errs.Parse(line.Source, line.Number, errNoSeparator)
	}

	entry := model.Entry{
		Key:   strings.TrimSpace(key),
		Value: strings.TrimSpace(value),
		Line:  line.Number,
	}

	if entry.Key == model.KeyDate {
		entry.Kind = model.KindDate
		return entry, nil
	}

	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return model.Entry{}, errs.Parse(line.Source, line.Number,
			fmt.Errorf("%w for key %q", errNoValue, entry.Key))
	}

	// Out-of-range tokens keep the ±Inf ParseFloat returns for them.
	n, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return model.Entry{}, errs.Parse(line.Source, line.Number,
			fmt.Errorf("key %q: invalid number %q: %w", entry.Key, tokens[0], err))
	}

	entry.Kind = model.KindNumeric
	entry.Number = n
	return entry, nil
}

// ClassifyAll classifies lines in order and stops at the first failure.
func ClassifyAll(lines []model.RawLine) ([]model.Entry, error) {
	entries := make([]model.Entry, 0, len(lines))
	for _, line := range lines {
		e, err := Classify(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
