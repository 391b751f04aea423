// Package snapshot builds normalized per-quarter holdings snapshots from
// raw filings. Display labels are not assigned here; see package labels.
package snapshot

import (
	"math"
	"sort"
	"strings"

	"github.com/seenimoa/form13f/internal/resolver"
	"github.com/seenimoa/form13f/internal/tables"
	"github.com/seenimoa/form13f/pkg/models"
)

// DefaultValueUnit expresses snapshot values in USD billions.
const DefaultValueUnit = 1e9

// Options configures a Builder.
type Options struct {
	// ValueUnit divides scaled USD values; zero means DefaultValueUnit.
	ValueUnit float64
	// CollapseAfter folds every holding beyond the first N into a single
	// "Other" row. Zero disables collapsing.
	CollapseAfter int
}

// Builder converts filings into snapshots. It is safe for concurrent use.
type Builder struct {
	resolver *resolver.Resolver
	tables   *tables.Tables
	opts     Options
}

// NewBuilder returns a Builder resolving tickers with r.
func NewBuilder(r *resolver.Resolver, opts Options) *Builder {
	if opts.ValueUnit <= 0 {
		opts.ValueUnit = DefaultValueUnit
	}
	if opts.CollapseAfter < 0 {
		opts.CollapseAfter = 0
	}
	return &Builder{resolver: r, tables: r.Tables(), opts: opts}
}

// Build normalizes one filing. valueScale multiplies every reported USD
// value; a non-positive valueScale falls back to the filing's own scale.
// A filing without holdings yields an empty snapshot.
func (b *Builder) Build(f models.Filing, valueScale float64) *models.Snapshot {
	if valueScale <= 0 {
		valueScale = f.Scale()
	}
	unit := valueScale / b.opts.ValueUnit

	snap := &models.Snapshot{
		Quarter:    f.Quarter,
		FilingDate: f.FiledDate,
		ValueScale: valueScale,
		Source:     models.SourceSEC,
		Holdings:   []models.NormalizedHolding{},
	}

	rows := make([]models.NormalizedHolding, 0, len(f.Holdings))
	weights := make([]models.Number, 0, len(f.Holdings))
	var sum float64
	for _, raw := range f.Holdings {
		h, ok := b.normalize(raw, unit)
		if !ok {
			continue
		}
		sum += h.Value
		rows = append(rows, h)
		weights = append(weights, raw.Weight)
	}

	total := f.TotalValueUSD.Float() * unit
	if total <= 0 {
		total = sum
	}
	snap.Total = total
	for i := range rows {
		switch {
		case weights[i].Valid:
			rows[i].Weight = weights[i].Value
		case total > 0:
			rows[i].Weight = rows[i].Value / total
		}
	}

	rows = merge(rows)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Key < rows[j].Key
	})
	snap.Positions = len(rows)
	snap.Holdings = collapse(rows, b.opts.CollapseAfter)
	snap.Top3Weight = top3Weight(snap.Holdings)
	return snap
}

func (b *Builder) normalize(raw models.RawHolding, unit float64) (models.NormalizedHolding, bool) {
	code := resolver.NormalizeCode(raw.ReportedCode())
	issuer := strings.Join(strings.Fields(raw.Issuer), " ")
	res := b.resolver.Resolve(code, raw.Ticker, issuer)
	id := resolver.Identity(code, res.Ticker, issuer)
	if id.IsZero() {
		return models.NormalizedHolding{}, false
	}
	h := models.NormalizedHolding{
		Key:           id.Key(),
		Identity:      id.Kind,
		Code:          code,
		Ticker:        res.Ticker,
		ResolvedBy:    string(res.Rule),
		Company:       CleanCompany(b.tables, issuer),
		SecurityClass: strings.Join(strings.Fields(raw.TitleOfClass), " "),
		ClassTag:      resolver.ClassTag(b.tables, issuer, raw.TitleOfClass),
		Value:         raw.ValueUSD.Float() * unit,
	}
	if p := raw.Shares.Ptr(); p != nil {
		s := NormalizeShares(*p)
		h.Shares = &s
	}
	return h, true
}

// NormalizeShares rounds share counts within 1e-6 of an integer to that
// integer and everything else to four decimals.
func NormalizeShares(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return r
	}
	return math.Round(v*1e4) / 1e4
}

// merge folds rows sharing a key. Values and weights add up; shares add
// up only while every merged row reports them.
func merge(rows []models.NormalizedHolding) []models.NormalizedHolding {
	pos := make(map[string]int, len(rows))
	out := rows[:0]
	for _, h := range rows {
		i, seen := pos[h.Key]
		if !seen {
			pos[h.Key] = len(out)
			out = append(out, h)
			continue
		}
		m := &out[i]
		m.Value += h.Value
		m.Weight += h.Weight
		if m.Shares != nil && h.Shares != nil {
			s := NormalizeShares(*m.Shares + *h.Shares)
			m.Shares = &s
		} else {
			m.Shares = nil
		}
		if m.Ticker == "" {
			m.Ticker, m.ResolvedBy = h.Ticker, h.ResolvedBy
		}
	}
	return out
}

func collapse(rows []models.NormalizedHolding, after int) []models.NormalizedHolding {
	if after <= 0 || len(rows) <= after {
		return rows
	}
	other := models.NormalizedHolding{
		Key:          models.OtherKey,
		Company:      models.OtherKey,
		DisplayLabel: models.OtherKey,
	}
	for _, h := range rows[after:] {
		other.Value += h.Value
		other.Weight += h.Weight
	}
	out := make([]models.NormalizedHolding, 0, after+1)
	out = append(out, rows[:after]...)
	return append(out, other)
}

func top3Weight(rows []models.NormalizedHolding) float64 {
	var sum float64
	n := 0
	for _, h := range rows {
		if h.IsOther() {
			continue
		}
		sum += h.Weight
		if n++; n == 3 {
			break
		}
	}
	return sum
}
