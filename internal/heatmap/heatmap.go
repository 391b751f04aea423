// Package heatmap aggregates holdings across institutions and ranks the
// aggregates by a composite heat score.
package heatmap

import (
	"math"
	"sort"

	"github.com/seenimoa/form13f/pkg/models"
)

// Defaults used when Options fields are zero.
const (
	DefaultTopN     = 24
	DefaultFloor    = 0.045
	DefaultContrast = 1.68
)

// Signal exponents and blend weights of the raw heat score.
const (
	countExp  = 1.8
	weightExp = 1.55
	valueExp  = 2.2

	countMix  = 0.3
	weightMix = 0.4
	valueMix  = 0.3
)

// Options tunes ranking.
type Options struct {
	TopN     int
	Floor    float64
	Contrast float64
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.Floor <= 0 || o.Floor >= 1 {
		o.Floor = DefaultFloor
	}
	if o.Contrast <= 0 {
		o.Contrast = DefaultContrast
	}
	return o
}

// Input is one institution's latest snapshot.
type Input struct {
	InstitutionID string
	Snapshot      *models.Snapshot
}

// AggregateKey is the cross-institution identity of a holding: resolved
// ticker, else key, else code, else company.
func AggregateKey(h models.NormalizedHolding) string {
	for _, k := range []string{h.Ticker, h.Key, h.Code, h.Company} {
		if k != "" {
			return k
		}
	}
	return ""
}

// Aggregate merges holdings across inputs, scores every aggregate and
// returns the top entries by heat. "Other" rows are ignored. Average
// weight divides by every institution considered, not only holders.
func Aggregate(inputs []Input, opts Options) []models.HeatEntry {
	opts = opts.withDefaults()

	entries := map[string]*models.HeatEntry{}
	holders := map[string]map[string]*models.Holder{}
	considered := 0
	for _, in := range inputs {
		if in.Snapshot == nil {
			continue
		}
		considered++
		for _, h := range in.Snapshot.Holdings {
			key := AggregateKey(h)
			if h.IsOther() || key == "" || (h.Value <= 0 && h.Weight <= 0) {
				continue
			}
			e, ok := entries[key]
			if !ok {
				e = &models.HeatEntry{Key: key, Ticker: h.Ticker, Company: h.Company, Label: label(h, key)}
				entries[key] = e
				holders[key] = map[string]*models.Holder{}
			}
			e.Value += h.Value
			e.WeightSum += h.Weight
			hd, ok := holders[key][in.InstitutionID]
			if !ok {
				hd = &models.Holder{InstitutionID: in.InstitutionID}
				holders[key][in.InstitutionID] = hd
			}
			hd.Value += h.Value
			hd.Weight += h.Weight
		}
	}
	if len(entries) == 0 {
		return []models.HeatEntry{}
	}

	out := make([]models.HeatEntry, 0, len(entries))
	for key, e := range entries {
		for _, hd := range holders[key] {
			e.Holders = append(e.Holders, *hd)
		}
		sort.Slice(e.Holders, func(i, j int) bool {
			if e.Holders[i].Value != e.Holders[j].Value {
				return e.Holders[i].Value > e.Holders[j].Value
			}
			return e.Holders[i].InstitutionID < e.Holders[j].InstitutionID
		})
		e.Institutions = len(e.Holders)
		e.AvgWeight = e.WeightSum / float64(considered)
		out = append(out, *e)
	}

	score(out, opts)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > opts.TopN {
		out = out[:opts.TopN]
	}
	return out
}

func label(h models.NormalizedHolding, key string) string {
	if h.Ticker != "" {
		return h.Ticker
	}
	if h.Company != "" {
		return h.Company
	}
	return key
}

// score sets Heat on every entry: boosted signals blended into a raw
// score, then min-max rescaled with a contrast curve onto [floor, 1].
func score(entries []models.HeatEntry, opts Options) {
	var maxCount, maxWeight, maxValue float64
	for _, e := range entries {
		maxCount = math.Max(maxCount, float64(e.Institutions))
		maxWeight = math.Max(maxWeight, e.AvgWeight)
		maxValue = math.Max(maxValue, e.Value)
	}
	raw := make([]float64, len(entries))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, e := range entries {
		r := countMix*boost(float64(e.Institutions), maxCount, countExp) +
			weightMix*boost(e.AvgWeight, maxWeight, weightExp) +
			valueMix*boost(e.Value, maxValue, valueExp)
		raw[i] = r
		lo, hi = math.Min(lo, r), math.Max(hi, r)
	}
	for i := range entries {
		t := 1.0
		if hi > lo {
			t = (raw[i] - lo) / (hi - lo)
		}
		entries[i].Heat = opts.Floor + (1-opts.Floor)*math.Pow(t, opts.Contrast)
	}
}

func boost(v, max, exp float64) float64 {
	if max <= 0 || v <= 0 {
		return 0
	}
	return math.Pow(v/max, exp)
}

func less(a, b models.HeatEntry) bool {
	switch {
	case a.Heat != b.Heat:
		return a.Heat > b.Heat
	case a.Institutions != b.Institutions:
		return a.Institutions > b.Institutions
	case a.AvgWeight != b.AvgWeight:
		return a.AvgWeight > b.AvgWeight
	case a.Value != b.Value:
		return a.Value > b.Value
	}
	return a.Key < b.Key
}
