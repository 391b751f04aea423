package models

// Bucket is a sector/style classification key.
type Bucket string

const (
	BucketTechnology  Bucket = "technology"
	BucketFinancials  Bucket = "financials"
	BucketConsumer    Bucket = "consumer"
	BucketHealthcare  Bucket = "healthcare"
	BucketIndustrials Bucket = "industrials"
	BucketEnergy      Bucket = "energy"
	BucketOther       Bucket = "other"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{
	BucketTechnology,
	BucketFinancials,
	BucketConsumer,
	BucketHealthcare,
	BucketIndustrials,
	BucketEnergy,
	BucketOther,
}

// Valid reports whether b is one of the fixed buckets.
func (b Bucket) Valid() bool {
	for _, k := range Buckets {
		if k == b {
			return true
		}
	}
	return false
}

// StyleProfile maps each bucket to its fraction of classified weight.
type StyleProfile map[Bucket]float64

// Sum returns the total fraction across buckets.
func (p StyleProfile) Sum() float64 {
	var s float64
	for _, v := range p {
		s += v
	}
	return s
}

// Max returns the largest bucket fraction.
func (p StyleProfile) Max() float64 {
	var m float64
	for _, v := range p {
		if v > m {
			m = v
		}
	}
	return m
}
