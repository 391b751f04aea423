// Package style buckets holdings into sector/style categories and
// aggregates them into per-snapshot style profiles.
package style

import (
	"regexp"
	"strings"

	"github.com/seenimoa/form13f/internal/tables"
	"github.com/seenimoa/form13f/pkg/models"
)

var nonAlnumRe = regexp.MustCompile(`[^A-Z0-9]+`)

type termList struct {
	bucket models.Bucket
	terms  []string
}

// Classifier assigns buckets from the ticker table and keyword lists.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	tickers      map[string]models.Bucket
	stripped     map[string]models.Bucket
	keywords     []termList
	fundSectors  []termList
	fundMarkers  []string
	sponsors     []string
	indexMarkers []string
	benchmark    models.StyleProfile
}

// NewClassifier prepares t's style tables for matching.
func NewClassifier(t *tables.Tables) *Classifier {
	c := &Classifier{
		tickers:      make(map[string]models.Bucket, len(t.TickerBuckets)),
		stripped:     make(map[string]models.Bucket, len(t.TickerBuckets)),
		keywords:     compileLists(t.BucketKeywords),
		fundSectors:  compileLists(t.FundSectorKeywords),
		fundMarkers:  compileTerms(t.FundMarkers),
		sponsors:     compileTerms(t.FundSponsors),
		indexMarkers: compileTerms(t.IndexMarkers),
		benchmark:    t.BenchmarkProfile(),
	}
	for ticker, b := range t.TickerBuckets {
		c.tickers[ticker] = b
		c.stripped[stripTicker(ticker)] = b
	}
	return c
}

// Classify returns h's bucket: exact ticker, share-class-stripped ticker,
// broad fund detection, ordered keyword lists, then other.
func (c *Classifier) Classify(h models.NormalizedHolding) models.Bucket {
	if ticker := strings.ToUpper(strings.TrimSpace(h.Ticker)); ticker != "" {
		if b, ok := c.tickers[ticker]; ok {
			return b
		}
		if b, ok := c.stripped[stripTicker(ticker)]; ok {
			return b
		}
	}
	text := matchText(h.Company + " " + h.SecurityClass)
	if c.isBroadFund(text) {
		if b, ok := firstMatch(c.fundSectors, text); ok {
			return b
		}
		return models.BucketOther
	}
	if b, ok := firstMatch(c.keywords, text); ok {
		return b
	}
	return models.BucketOther
}

func (c *Classifier) isBroadFund(text string) bool {
	if !containsAny(text, c.fundMarkers) {
		return false
	}
	return containsAny(text, c.sponsors) || containsAny(text, c.indexMarkers)
}

// Profile sums positive weights per bucket over every holding except the
// "Other" row and normalizes by the classified total. Every bucket is
// present in the result; an empty portfolio yields all zeros.
func (c *Classifier) Profile(holdings []models.NormalizedHolding) models.StyleProfile {
	p := make(models.StyleProfile, len(models.Buckets))
	for _, b := range models.Buckets {
		p[b] = 0
	}
	var total float64
	for _, h := range holdings {
		if h.IsOther() || h.Weight <= 0 {
			continue
		}
		p[c.Classify(h)] += h.Weight
		total += h.Weight
	}
	if total <= 0 {
		return p
	}
	for b := range p {
		p[b] /= total
	}
	return p
}

// Benchmark returns a copy of the static reference profile.
func (c *Classifier) Benchmark() models.StyleProfile {
	out := make(models.StyleProfile, len(c.benchmark))
	for k, v := range c.benchmark {
		out[k] = v
	}
	return out
}

func stripTicker(t string) string {
	return strings.NewReplacer("-", "", ".", "").Replace(t)
}

// matchText upper-cases s, spells out "&" and pads every token with
// spaces so terms match on whole words.
func matchText(s string) string {
	s = strings.ReplaceAll(strings.ToUpper(s), "&", " AND ")
	s = strings.TrimSpace(nonAlnumRe.ReplaceAllString(s, " "))
	return " " + s + " "
}

func compileTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if m := strings.TrimSpace(matchText(t)); m != "" {
			out = append(out, " "+m+" ")
		}
	}
	return out
}

func compileLists(lists []tables.BucketTerms) []termList {
	out := make([]termList, 0, len(lists))
	for _, l := range lists {
		out = append(out, termList{bucket: l.Bucket, terms: compileTerms(l.Terms)})
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func firstMatch(lists []termList, text string) (models.Bucket, bool) {
	for _, l := range lists {
		if containsAny(text, l.terms) {
			return l.bucket, true
		}
	}
	return "", false
}
