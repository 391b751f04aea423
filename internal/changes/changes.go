// Package changes compares two consecutive snapshots of one institution
// and produces classified, ranked position changes.
package changes

import (
	"math"
	"sort"

	"github.com/seenimoa/form13f/pkg/models"
)

// DefaultMaterialityFloor is the smallest value delta, in snapshot units
// (USD billions by default), reported when share counts are unavailable.
const DefaultMaterialityFloor = 0.008

const shareEpsilon = 1e-9

// Options tunes change detection.
type Options struct {
	MaterialityFloor float64
}

// Engine computes change rows.
type Engine struct {
	floor float64
}

// New returns an Engine. A non-positive floor means the default.
func New(opts Options) *Engine {
	if opts.MaterialityFloor <= 0 {
		opts.MaterialityFloor = DefaultMaterialityFloor
	}
	return &Engine{floor: opts.MaterialityFloor}
}

// Compute compares cur with prev over the union of their keys, excluding
// the synthetic "Other" row. Rows are sorted by ChangeAmount descending.
// Callers decide whether a previous quarter exists; a nil snapshot is
// treated as holding nothing.
func (e *Engine) Compute(cur, prev *models.Snapshot) []models.ChangeRow {
	curIdx, prevIdx := cur.Index(), prev.Index()

	keys := make([]string, 0, len(curIdx)+len(prevIdx))
	seen := make(map[string]struct{}, len(curIdx)+len(prevIdx))
	for _, s := range []*models.Snapshot{cur, prev} {
		if s == nil {
			continue
		}
		for _, h := range s.Holdings {
			if h.IsOther() {
				continue
			}
			if _, ok := seen[h.Key]; ok {
				continue
			}
			seen[h.Key] = struct{}{}
			keys = append(keys, h.Key)
		}
	}

	rows := make([]models.ChangeRow, 0, len(keys))
	for _, k := range keys {
		c, inCur := curIdx[k]
		p, inPrev := prevIdx[k]
		if row, ok := e.compare(k, c, inCur, p, inPrev); ok {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ChangeAmount != rows[j].ChangeAmount {
			return rows[i].ChangeAmount > rows[j].ChangeAmount
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// side is one snapshot's view of a key; an absent key holds zero shares.
type side struct {
	value  float64
	shares *float64
}

func sideOf(h models.NormalizedHolding, present bool) side {
	if !present {
		zero := 0.0
		return side{shares: &zero}
	}
	return side{value: h.Value, shares: h.Shares}
}

func (e *Engine) compare(key string, c models.NormalizedHolding, inCur bool, p models.NormalizedHolding, inPrev bool) (models.ChangeRow, bool) {
	meta := c
	if !inCur {
		meta = p
	}
	cs, ps := sideOf(c, inCur), sideOf(p, inPrev)
	row := models.ChangeRow{
		Key:           key,
		Ticker:        meta.Ticker,
		Company:       meta.Company,
		SecurityClass: meta.SecurityClass,
		DisplayLabel:  meta.DisplayLabel,
		PreviousValue: ps.value,
		CurrentValue:  cs.value,
	}
	if inCur {
		row.CurrentShares = c.Shares
	}
	if inPrev {
		row.PreviousShares = p.Shares
	}

	var ok bool
	if cs.shares != nil && ps.shares != nil {
		ok = byShares(&row, cs, ps)
	} else {
		ok = e.byValue(&row, cs, ps)
	}
	if !ok {
		return models.ChangeRow{}, false
	}
	row.Direction = row.Action.Direction()
	return row, true
}

func byShares(row *models.ChangeRow, cur, prev side) bool {
	cs, ps := *cur.shares, *prev.shares
	delta := cs - ps
	if math.Abs(delta) < shareEpsilon {
		return false
	}
	switch {
	case ps == 0 && cs > 0:
		row.Action = models.ActionNew
	case cs == 0 && ps > 0:
		row.Action = models.ActionExit
	case delta < 0:
		row.Action = models.ActionTrim
	default:
		row.Action = models.ActionAdd
	}
	if ps > 0 {
		r := delta / ps
		row.ChangeRatio, row.RatioSource = &r, models.RatioShares
	} else {
		row.RatioSource = models.RatioNone
	}
	if price, ok := referencePrice(delta > 0, cur, prev); ok {
		row.ChangeAmount = math.Abs(delta) * price
	} else {
		row.ChangeAmount = math.Abs(cur.value - prev.value)
	}
	row.Delta = float64(row.Action.Direction()) * row.ChangeAmount
	return true
}

func (e *Engine) byValue(row *models.ChangeRow, cur, prev side) bool {
	delta := cur.value - prev.value
	if math.Abs(delta) < e.floor {
		return false
	}
	switch {
	case prev.value <= 0 && cur.value > 0:
		row.Action = models.ActionNew
	case cur.value <= 0 && prev.value > 0:
		row.Action = models.ActionExit
	case delta < 0:
		row.Action = models.ActionTrim
	default:
		row.Action = models.ActionAdd
	}
	if prev.value > 0 {
		r := delta / prev.value
		row.ChangeRatio, row.RatioSource = &r, models.RatioValue
	} else {
		row.RatioSource = models.RatioNone
	}
	row.ChangeAmount = math.Abs(delta)
	row.Delta = delta
	return true
}

// referencePrice is the implied per-share price used to size a trade.
// Buys prefer the current quarter's price and sells the previous one,
// each falling back to the other side.
func referencePrice(buy bool, cur, prev side) (float64, bool) {
	first, second := prev, cur
	if buy {
		first, second = cur, prev
	}
	if p, ok := impliedPrice(first); ok {
		return p, true
	}
	return impliedPrice(second)
}

func impliedPrice(s side) (float64, bool) {
	if s.shares == nil || *s.shares <= 0 {
		return 0, false
	}
	p := s.value / *s.shares
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, false
	}
	return p, true
}

// Split partitions rows into buys and sells, keeping their order.
func Split(rows []models.ChangeRow) (adds, trims []models.ChangeRow) {
	adds = make([]models.ChangeRow, 0, len(rows))
	trims = make([]models.ChangeRow, 0, len(rows))
	for _, r := range rows {
		if r.Direction > 0 {
			adds = append(adds, r)
		} else {
			trims = append(trims, r)
		}
	}
	return adds, trims
}
