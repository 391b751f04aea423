package labels

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/form13f/pkg/models"
)

func TestBaseLabel(t *testing.T) {
	tests := []struct {
		name string
		h    models.NormalizedHolding
		want string
	}{
		{"company and ticker", models.NormalizedHolding{Company: "Apple", Ticker: "AAPL"}, "Apple (AAPL)"},
		{"with class", models.NormalizedHolding{Company: "Alphabet", Ticker: "GOOGL", ClassTag: "Class A"}, "Alphabet (GOOGL) · Class A"},
		{"no ticker", models.NormalizedHolding{Company: "Acme Widgets"}, "Acme Widgets"},
		{"ticker only", models.NormalizedHolding{Ticker: "SPY"}, "SPY"},
		{"same as ticker", models.NormalizedHolding{Company: "IBM", Ticker: "IBM"}, "IBM"},
		{"code only", models.NormalizedHolding{Key: "000000AA1", Code: "000000AA1"}, "000000AA1"},
		{"other", models.NormalizedHolding{Key: models.OtherKey, Company: models.OtherKey}, "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseLabel(tt.h))
		})
	}
}

func TestAssignLibertyMedia(t *testing.T) {
	holdings := []models.NormalizedHolding{
		{Key: "531229001", Code: "531221234", Company: "Liberty Media", Ticker: "LMCA"},
		{Key: "531229002", Code: "531225678", Company: "Liberty Media", Ticker: "LMCA"},
		{Key: "037833100", Code: "037833100", Company: "Apple", Ticker: "AAPL"},
	}
	Assign(holdings)
	assert.Equal(t, "Liberty Media (LMCA) · CUSIP 1234", holdings[0].DisplayLabel)
	assert.Equal(t, "Liberty Media (LMCA) · CUSIP 5678", holdings[1].DisplayLabel)
	assert.Equal(t, "Apple (AAPL)", holdings[2].DisplayLabel)
}

func TestAssignFallbacks(t *testing.T) {
	holdings := []models.NormalizedHolding{
		{Key: "a", Company: "Acme"},
		{Key: "b", Company: "Acme"},
		{Key: "c", Company: "Acme"},
		{Key: "x1", Code: "111111234", Company: "Zeta"},
		{Key: "x2", Code: "999991234", Company: "Zeta"},
		// A unique base label that a suffixed candidate would collide with.
		{Key: "d", Company: "Acme · Holding"},
	}
	Assign(holdings)
	assert.Equal(t, "Acme · Holding #2", holdings[0].DisplayLabel)
	assert.Equal(t, "Acme · Holding #3", holdings[1].DisplayLabel)
	assert.Equal(t, "Acme · Holding #4", holdings[2].DisplayLabel)
	assert.Equal(t, "Zeta · CUSIP 1234", holdings[3].DisplayLabel)
	assert.Equal(t, "Zeta · CUSIP 1234 #2", holdings[4].DisplayLabel)
	assert.Equal(t, "Acme · Holding", holdings[5].DisplayLabel)
}

func TestHint(t *testing.T) {
	assert.Equal(t, "CUSIP 5678", hint("531225678"))
	assert.Equal(t, "CUSIP 101R", hint("88160101r"))
	assert.Equal(t, "Holding", hint("ACME"))
	assert.Equal(t, "Holding", hint("1234-6789"))
	assert.Equal(t, "Holding", hint(""))
}

// No two holdings ever share a label, however adversarial the input.
func TestAssignUnique(t *testing.T) {
	companies := []string{"Acme", "Acme · Holding", "Acme · Holding #2", "Acme · CUSIP 1234", ""}
	codes := []string{"", "000001234", "999991234", "bad", "000005678"}
	tickers := []string{"", "ACME"}
	tags := []string{"", "Class A"}

	var holdings []models.NormalizedHolding
	n := 0
	for _, c := range companies {
		for _, code := range codes {
			for _, tk := range tickers {
				for _, tag := range tags {
					n++
					holdings = append(holdings, models.NormalizedHolding{
						Key:      fmt.Sprintf("k%d", n),
						Code:     code,
						Company:  c,
						Ticker:   tk,
						ClassTag: tag,
					})
				}
			}
		}
	}
	// Duplicate every row once more.
	holdings = append(holdings, holdings...)
	Assign(holdings)

	seen := make(map[string]int, len(holdings))
	for i, h := range holdings {
		require.NotEmpty(t, h.DisplayLabel)
		prev, dup := seen[h.DisplayLabel]
		require.False(t, dup, "rows %d and %d share %q", prev, i, h.DisplayLabel)
		seen[h.DisplayLabel] = i
	}
}
