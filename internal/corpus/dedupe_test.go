package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/form13f/pkg/models"
)

func TestDedupe(t *testing.T) {
	f := func(q string, total, count float64, filed, form, acc string) models.Filing {
		return models.Filing{
			Quarter:       q,
			TotalValueUSD: models.NewNumber(total),
			HoldingsCount: models.NewNumber(count),
			FiledDate:     filed,
			Form:          form,
			Accession:     acc,
		}
	}
	tests := []struct {
		name    string
		in      []models.Filing
		wantAcc string
	}{
		{"larger total", []models.Filing{f("2024Q1", 10, 5, "", "", "a"), f("2024Q1", 20, 1, "", "", "b")}, "b"},
		{"more holdings", []models.Filing{f("2024Q1", 10, 9, "", "", "a"), f("2024Q1", 10, 5, "", "", "b")}, "a"},
		{"filed later", []models.Filing{f("2024Q1", 10, 5, "2024-05-01", "", "a"), f("2024Q1", 10, 5, "2024-06-01", "", "b")}, "b"},
		{"amendment", []models.Filing{f("2024Q1", 10, 5, "d", "13F-HR/A", "a"), f("2024Q1", 10, 5, "d", "13F-HR", "b")}, "a"},
		{"accession", []models.Filing{f("2024Q1", 10, 5, "d", "", "x1"), f("2024Q1", 10, 5, "d", "", "x2")}, "x2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, dropped := Dedupe(tt.in)
			require.Len(t, out, 1)
			assert.Equal(t, 1, dropped)
			assert.Equal(t, tt.wantAcc, out[0].Accession)
		})
	}
}

func TestDedupeOrdersByQuarter(t *testing.T) {
	out, dropped := Dedupe([]models.Filing{
		{Quarter: "2024Q1"},
		{Quarter: "2023q4"},
		{Quarter: "bogus"},
		{Quarter: "2009Q4"},
		{Quarter: "2010Q1"},
	})
	assert.Equal(t, 1, dropped)
	var qs []string
	for _, f := range out {
		qs = append(qs, f.Quarter)
	}
	assert.Equal(t, []string{"2009Q4", "2010Q1", "2023Q4", "2024Q1"}, qs)
}

func TestLatestFiling(t *testing.T) {
	_, ok := LatestFiling(nil)
	assert.False(t, ok)

	latest, ok := LatestFiling([]models.Filing{
		{Quarter: "2024Q2", ReportDate: "2024-06-30", FiledDate: "2024-08-01", Accession: "1"},
		{Quarter: "2024Q2", ReportDate: "2024-06-30", FiledDate: "2024-08-14", Accession: "0"},
		{Quarter: "2024Q1", ReportDate: "2024-03-31", FiledDate: "2024-12-01", Accession: "9"},
	})
	require.True(t, ok)
	assert.Equal(t, "2024-08-14", latest.FiledDate)
}
