package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/form13f/pkg/models"
)

func writeOverlay(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	tb, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "AAPL", tb.CodeTickers["037833100"])
	assert.Equal(t, "AAPL", tb.IssuerTickers["APPLE INC"])
	assert.True(t, tb.IsStopWord("INC"))
	assert.False(t, tb.IsStopWord("APPLE"))
	assert.True(t, tb.IsGenericIssuerPrefix("ISHARES"))
	assert.True(t, tb.IsEntitySuffix("CORP"))
	assert.True(t, tb.IsAcronym("IBM"))

	exp, ok := tb.Abbreviation("INTL")
	assert.True(t, ok)
	assert.Equal(t, "INTERNATIONAL", exp)

	bench := tb.BenchmarkProfile()
	assert.InDelta(t, 1.0, bench.Sum(), 1e-9)
	assert.Equal(t, 0.31, bench.Max())
	for _, b := range models.Buckets {
		assert.Contains(t, bench, b)
	}

	// BenchmarkProfile hands out copies.
	bench[models.BucketTechnology] = 0
	assert.Equal(t, 0.31, tb.BenchmarkProfile()[models.BucketTechnology])
}

func TestSortedNames(t *testing.T) {
	ct := ClassTracker{Names: map[string]string{
		"LIVE":         "Live",
		"LIBERTY LIVE": "Live",
		"F1":           "Formula One",
		"FORMULA ONE":  "Formula One",
	}}
	names := ct.SortedNames()
	require.Len(t, names, 4)
	assert.Equal(t, "LIBERTY LIVE", names[0].Keyword)
	assert.Equal(t, "FORMULA ONE", names[1].Keyword)
	assert.Equal(t, "LIVE", names[2].Keyword)
	assert.Equal(t, "F1", names[3].Keyword)
}

func TestLoadOverlay(t *testing.T) {
	path := writeOverlay(t, `
code_tickers:
  "000000zz9": zzz
issuer_tickers:
  EXAMPLE HOLDINGS: exh
acronyms: [XYZ]
ticker_buckets:
  zzz: energy
`)
	tb, err := Load(path)
	require.NoError(t, err)

	// Overlay maps extend the defaults; keys and values are upper-cased.
	assert.Equal(t, "ZZZ", tb.CodeTickers["000000ZZ9"])
	assert.Equal(t, "AAPL", tb.CodeTickers["037833100"])
	assert.Equal(t, "EXH", tb.IssuerTickers["EXAMPLE HOLDINGS"])
	assert.Equal(t, models.BucketEnergy, tb.TickerBuckets["ZZZ"])

	// Non-empty lists replace.
	assert.True(t, tb.IsAcronym("XYZ"))
	assert.False(t, tb.IsAcronym("IBM"))
	assert.True(t, tb.IsStopWord("INC"), "lists absent from the overlay keep their defaults")
}

func TestLoadEmptyPath(t *testing.T) {
	tb, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", tb.CodeTickers["037833100"])
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "code_tickers: [unterminated"},
		{"unknown ticker bucket", "ticker_buckets:\n  ZZZ: crypto\n"},
		{"unknown keyword bucket", "bucket_keywords:\n  - bucket: crypto\n    terms: [COIN]\n"},
		{"benchmark sum", "benchmark:\n  technology: 0.5\n  other: 0.4\n"},
		{"negative benchmark", "benchmark:\n  technology: 1.2\n  other: -0.2\n"},
		{"multi-token abbreviation", "abbreviations:\n  XX: TWO WORDS\n"},
		{"chained abbreviation", "abbreviations:\n  XX: INTL\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeOverlay(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
