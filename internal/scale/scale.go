// Package scale detects unit discontinuities in a filer's reported totals.
//
// Some filers switch between reporting values in dollars and in thousands
// of dollars without any flag in the filing. A single-quarter jump in the
// reported total of at least Threshold times is treated as such a switch,
// and every quarter before it is rescaled by Factor.
package scale

import (
	"sort"

	"github.com/seenimoa/form13f/pkg/models"
)

// Defaults used when Options fields are zero. The threshold is a tuned
// heuristic, not a derived constant.
const (
	DefaultThreshold = 200
	DefaultFactor    = 1000
)

// Options tunes detection.
type Options struct {
	Threshold float64
	Factor    float64
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Factor <= 0 {
		o.Factor = DefaultFactor
	}
	return o
}

// Map is quarter -> value multiplier. A nil Map scales everything by 1.
type Map map[string]float64

// Scale returns the multiplier for quarter, 1 when unknown.
func (m Map) Scale(quarter string) float64 {
	if v, ok := m[quarter]; ok && v > 0 {
		return v
	}
	return 1
}

// Detection is the result of Detect.
type Detection struct {
	// Pivot is the index, in quarter order, of the first quarter reported
	// in the new unit; -1 when no discontinuity was found.
	Pivot        int
	PivotQuarter string
	Factor       float64
	Scales       Map
}

// Found reports whether a discontinuity was detected.
func (d Detection) Found() bool {
	return d.Pivot >= 0
}

// Detect sorts filings by quarter and looks for the first consecutive pair
// whose total jumps by at least opts.Threshold with both totals positive.
// At most one pivot is detected. The input slice is not modified.
func Detect(filings []models.Filing, opts Options) Detection {
	opts = opts.withDefaults()
	ordered := make([]models.Filing, len(filings))
	copy(ordered, filings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return models.CompareQuarters(ordered[i].Quarter, ordered[j].Quarter) < 0
	})

	d := Detection{Pivot: -1, Factor: 1, Scales: make(Map, len(ordered))}
	for i := 1; i < len(ordered); i++ {
		prev := ordered[i-1].TotalValueUSD.Float()
		cur := ordered[i].TotalValueUSD.Float()
		if prev > 0 && cur > 0 && cur/prev >= opts.Threshold {
			d.Pivot = i
			d.PivotQuarter = ordered[i].Quarter
			d.Factor = opts.Factor
			break
		}
	}
	for i, f := range ordered {
		s := 1.0
		if d.Pivot >= 0 && i < d.Pivot {
			s = opts.Factor
		}
		d.Scales[f.Quarter] = s
	}
	return d
}

// Apply returns copies of filings with ValueScale set from m.
func Apply(filings []models.Filing, m Map) []models.Filing {
	out := make([]models.Filing, len(filings))
	for i, f := range filings {
		f.ValueScale = m.Scale(f.Quarter)
		out[i] = f
	}
	return out
}
