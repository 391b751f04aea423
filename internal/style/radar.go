package style

import (
	"math"

	"github.com/seenimoa/form13f/pkg/models"
)

// Radar scaling bounds.
const (
	MinCap       = 0.2
	MaxCap       = 0.8
	DefaultGamma = 0.62
	MinGamma     = 0.45
	MaxGamma     = 1.0
)

// RadarScale maps profile fractions onto a shared display axis so that
// several profiles stay comparable. It never changes a stored profile.
type RadarScale struct {
	Cap   float64 `json:"cap"`
	Gamma float64 `json:"gamma"`
}

// NewRadarScale derives the cap from the largest bucket across profiles,
// clamped to [MinCap, MaxCap]. A zero gamma means DefaultGamma; others are
// clamped to [MinGamma, MaxGamma].
func NewRadarScale(gamma float64, profiles ...models.StyleProfile) RadarScale {
	var peak float64
	for _, p := range profiles {
		peak = math.Max(peak, p.Max())
	}
	if gamma == 0 {
		gamma = DefaultGamma
	}
	return RadarScale{
		Cap:   clamp(peak, MinCap, MaxCap),
		Gamma: clamp(gamma, MinGamma, MaxGamma),
	}
}

// ToScaled returns (v/cap)^gamma, clamped to [0, 1].
func (r RadarScale) ToScaled(v float64) float64 {
	if v <= 0 || r.Cap <= 0 {
		return 0
	}
	return math.Min(1, math.Pow(v/r.Cap, r.Gamma))
}

// ToRaw inverts ToScaled for values in [0, cap].
func (r RadarScale) ToRaw(s float64) float64 {
	if s <= 0 || r.Gamma <= 0 {
		return 0
	}
	return r.Cap * math.Pow(s, 1/r.Gamma)
}

// Scale applies ToScaled to every bucket of p.
func (r RadarScale) Scale(p models.StyleProfile) models.StyleProfile {
	out := make(models.StyleProfile, len(p))
	for b, v := range p {
		out[b] = r.ToScaled(v)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
