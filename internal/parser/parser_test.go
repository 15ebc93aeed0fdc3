package parser

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindaran/pia-stats/internal/errs"
	"github.com/kindaran/pia-stats/internal/model"
)

func lines(texts ...string) []model.RawLine {
	out := make([]model.RawLine, len(texts))
	for i, s := range texts {
		out[i] = model.RawLine{Text: s, Source: "test.log", Number: i + 1}
	}
	return out
}

func texts(ls []model.RawLine) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Text
	}
	return out
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("This is a test string\ntest flag: test", "test.log")

	require.Len(t, got, 2)
	assert.Equal(t, model.RawLine{Text: "test flag: test", Source: "test.log", Number: 2}, got[1])
}

func TestFilterSingleKeyword(t *testing.T) {
	got := Filter(SplitLines("This is a test string\ntest flag: test", "test.log"), []string{"flag"})

	assert.Equal(t, []string{"test flag: test"}, texts(got))
}

func TestFilterMultiKeyword(t *testing.T) {
	got := Filter(SplitLines("This is a test string\ntest flag: test", "test.log"), []string{"flag", "string"})

	assert.Len(t, got, 2)
}

func TestFilterSubstringAnywhere(t *testing.T) {
	in := lines(
		"Retrieving speedtest.net configuration...",
		"Date: Mon Jan  1 10:00:00 UTC 2024",
		"Testing download speed...",
		"Download: 93.21 Mbit/s",
		"Uploading results",
		"UpdateDate: never",
		"date: lowercase is not a keyword",
		"Upload: 11.02 Mbit/s",
	)

	got := Filter(in, DefaultKeywords)

	assert.Equal(t, []string{
		"Date: Mon Jan  1 10:00:00 UTC 2024",
		"Download: 93.21 Mbit/s",
		"Uploading results",
		"UpdateDate: never",
		"Upload: 11.02 Mbit/s",
	}, texts(got))
	assert.Equal(t, 2, got[0].Number)
}

func TestFilterKeepsIffSomeKeywordIsSubstring(t *testing.T) {
	keywordSets := [][]string{nil, {}, {"x"}, {"Date", "Upload"}, {""}}
	samples := []string{"", "x", "Date", "no match", "an Upload line", "xDatex"}

	for _, ks := range keywordSets {
		got := Filter(lines(samples...), ks)
		var want []string
		for _, s := range samples {
			if Matches(s, ks) {
				want = append(want, s)
			}
		}
		assert.Equal(t, len(want), len(got), "keywords %q", ks)
	}

	// The empty keyword is a substring of every line.
	assert.Len(t, Filter(lines(samples...), []string{""}), len(samples))
	assert.Empty(t, Filter(lines(samples...), nil))
}

func TestClassifyDate(t *testing.T) {
	e, err := Classify(model.RawLine{Text: "Date: Mon Jan  1 10:00:00 UTC 2024\r", Number: 3})

	require.NoError(t, err)
	assert.True(t, e.IsDate())
	assert.Equal(t, "Date", e.Key)
	assert.Equal(t, "Mon Jan  1 10:00:00 UTC 2024", e.Value)
	assert.Equal(t, 3, e.Line)
}

func TestClassifyNumeric(t *testing.T) {
	e, err := Classify(model.RawLine{Text: "Download: 123.45 Mbit/s"})

	require.NoError(t, err)
	assert.Equal(t, model.KindNumeric, e.Kind)
	assert.Equal(t, "Download", e.Key)
	assert.Equal(t, 123.45, e.Number)
}

func TestClassifyTrimsKey(t *testing.T) {
	e, err := Classify(model.RawLine{Text: "   Date   :  2024-01-01  "})

	require.NoError(t, err)
	assert.True(t, e.IsDate())
	assert.Equal(t, "2024-01-01", e.Value)
}

func TestClassifyNonDateKeyIsNumeric(t *testing.T) {
	e, err := Classify(model.RawLine{Text: "Last Date checked: 42 times"})

	require.NoError(t, err)
	assert.Equal(t, model.KindNumeric, e.Kind)
	assert.Equal(t, 42.0, e.Number)
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"non numeric", "Upload: fast Mbit/s"},
		{"no value", "Download:   "},
		{"no separator", "Testing download speed"},
		{"date without separator", "Date 2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(model.RawLine{Text: tt.text, Source: "speedtest.log", Number: 9})

			require.ErrorIs(t, err, errs.ErrParse)
			var tagged *errs.Error
			require.ErrorAs(t, err, &tagged)
			assert.Equal(t, 9, tagged.Line)
			assert.Equal(t, "speedtest.log", tagged.Path)
		})
	}
}

func TestClassifyOutOfRangeIsInfinite(t *testing.T) {
	e, err := Classify(model.RawLine{Text: "Download: 1e400 Mbit/s"})
	require.NoError(t, err)
	assert.True(t, math.IsInf(e.Number, 1))

	e, err = Classify(model.RawLine{Text: "Upload: -1e400 Mbit/s"})
	require.NoError(t, err)
	assert.True(t, math.IsInf(e.Number, -1))
}

func TestClassifyKeepsNumberCause(t *testing.T) {
	_, err := Classify(model.RawLine{Text: "Upload: fast Mbit/s", Number: 4})

	require.ErrorIs(t, err, errs.ErrParse)
	require.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestClassifyAllStopsAtFirstFailure(t *testing.T) {
	_, err := ClassifyAll(lines("Date: d1", "Download: oops", "Upload: nope"))

	var tagged *errs.Error
	require.ErrorAs(t, err, &tagged)
	assert.Equal(t, 2, tagged.Line)
}

func TestClassifyAll(t *testing.T) {
	got, err := ClassifyAll(lines("Date: d1", "Download: 50 Mbit/s", "Upload: 10.5 Mbit/s"))

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "d1", got[0].Value)
	assert.Equal(t, 50.0, got[1].Number)
	assert.Equal(t, 10.5, got[2].Number)
}
