package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/form13f/internal/tables"
	"github.com/seenimoa/form13f/pkg/models"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(tables.MustDefault())
	tests := []struct {
		name string
		h    models.NormalizedHolding
		want models.Bucket
	}{
		{"exact ticker", models.NormalizedHolding{Ticker: "AAPL", Company: "Apple"}, models.BucketTechnology},
		{"ticker case", models.NormalizedHolding{Ticker: "jpm"}, models.BucketFinancials},
		{"share class dot", models.NormalizedHolding{Ticker: "BRK.B"}, models.BucketFinancials},
		{"share class stripped", models.NormalizedHolding{Ticker: "BRKB"}, models.BucketFinancials},
		{"ticker beats keywords", models.NormalizedHolding{Ticker: "TSLA", Company: "Tesla Energy Bank"}, models.BucketConsumer},
		{"keyword fallback", models.NormalizedHolding{Company: "EXAMPLE OIL & GAS TRUST"}, models.BucketEnergy},
		{"broad etf", models.NormalizedHolding{Company: "Ishares Tr", SecurityClass: "CORE S&P 500 ETF"}, models.BucketOther},
		{"sector keyword inside fund", models.NormalizedHolding{Company: "SPDR S&P Bank Holdings Trust Index"}, models.BucketFinancials},
		{"broad etf with data", models.NormalizedHolding{Company: "Vanguard Total Market Data Index Fund"}, models.BucketOther},
		{"sector etf", models.NormalizedHolding{Company: "Financial Select Sector SPDR Fund"}, models.BucketFinancials},
		{"energy etf", models.NormalizedHolding{Company: "Vanguard World Fds", SecurityClass: "ENERGY ETF"}, models.BucketEnergy},
		{"healthcare", models.NormalizedHolding{Company: "Acme Pharmaceuticals"}, models.BucketHealthcare},
		{"priority order", models.NormalizedHolding{Company: "Data Bank"}, models.BucketFinancials},
		{"industrials", models.NormalizedHolding{Company: "Northern Railroad"}, models.BucketIndustrials},
		{"technology", models.NormalizedHolding{Company: "Acme Software"}, models.BucketTechnology},
		{"consumer", models.NormalizedHolding{Company: "Acme Foods"}, models.BucketConsumer},
		{"whole words only", models.NormalizedHolding{Company: "Bankside Oilers Dataset"}, models.BucketOther},
		{"unknown", models.NormalizedHolding{Company: "Mystery Holdings"}, models.BucketOther},
		{"empty", models.NormalizedHolding{}, models.BucketOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.h))
		})
	}
}

func TestProfile(t *testing.T) {
	c := NewClassifier(tables.MustDefault())
	p := c.Profile([]models.NormalizedHolding{
		{Key: "a", Ticker: "AAPL", Weight: 0.4},
		{Key: "b", Ticker: "JPM", Weight: 0.2},
		{Key: models.OtherKey, Company: "Acme Software", Weight: 0.3},
		{Key: "c", Company: "Mystery Holdings", Weight: 0.1},
		{Key: "d", Ticker: "XOM", Company: "Exxon Mobil Oil", Weight: 0},
	})
	require.Len(t, p, len(models.Buckets))
	assert.InDelta(t, 0.4/0.7, p[models.BucketTechnology], 1e-12)
	assert.InDelta(t, 0.2/0.7, p[models.BucketFinancials], 1e-12)
	assert.InDelta(t, 0.1/0.7, p[models.BucketOther], 1e-12)
	assert.Zero(t, p[models.BucketEnergy])
	assert.InDelta(t, 1.0, p.Sum(), 1e-12)

	empty := c.Profile(nil)
	require.Len(t, empty, len(models.Buckets))
	assert.Zero(t, empty.Sum())
}

func TestBenchmark(t *testing.T) {
	c := NewClassifier(tables.MustDefault())
	b := c.Benchmark()
	assert.InDelta(t, 1.0, b.Sum(), 1e-9)
	assert.InDelta(t, 0.31, b[models.BucketTechnology], 1e-12)

	b[models.BucketTechnology] = 0
	assert.InDelta(t, 0.31, c.Benchmark()[models.BucketTechnology], 1e-12)
}

func TestRadarScaleBounds(t *testing.T) {
	tests := []struct {
		name      string
		gamma     float64
		peak      float64
		wantCap   float64
		wantGamma float64
	}{
		{"defaults", 0, 0.5, 0.5, DefaultGamma},
		{"cap floor", 0, 0.1, MinCap, DefaultGamma},
		{"cap ceiling", 0, 0.95, MaxCap, DefaultGamma},
		{"gamma floor", 0.1, 0.5, 0.5, MinGamma},
		{"gamma ceiling", 3, 0.5, 0.5, MaxGamma},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRadarScale(tt.gamma, models.StyleProfile{models.BucketEnergy: tt.peak})
			assert.Equal(t, tt.wantCap, r.Cap)
			assert.Equal(t, tt.wantGamma, r.Gamma)
		})
	}
	assert.Equal(t, MinCap, NewRadarScale(0).Cap)
}

func TestRadarRoundTrip(t *testing.T) {
	for _, r := range []RadarScale{
		NewRadarScale(0, models.StyleProfile{models.BucketTechnology: 0.37}),
		NewRadarScale(0.45, models.StyleProfile{models.BucketTechnology: 0.8}),
		NewRadarScale(1, models.StyleProfile{}),
	} {
		for i := 0; i <= 100; i++ {
			v := r.Cap * float64(i) / 100
			assert.InDelta(t, v, r.ToRaw(r.ToScaled(v)), 1e-12, "cap=%v gamma=%v v=%v", r.Cap, r.Gamma, v)
		}
		assert.Equal(t, 1.0, r.ToScaled(r.Cap))
		assert.Equal(t, 1.0, r.ToScaled(r.Cap*2))
	}
}

func TestRadarScaleLeavesProfile(t *testing.T) {
	p := models.StyleProfile{models.BucketTechnology: 0.4, models.BucketOther: 0.1}
	r := NewRadarScale(0, p)
	scaled := r.Scale(p)
	assert.Equal(t, 0.4, p[models.BucketTechnology])
	assert.InDelta(t, 1.0, scaled[models.BucketTechnology], 1e-12)
	assert.Less(t, scaled[models.BucketOther], 1.0)
	assert.Greater(t, scaled[models.BucketOther], 0.1)
}
