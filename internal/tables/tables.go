// Package tables holds the static normalization data: ticker overrides,
// issuer normalization vocabularies, security-class trackers, style
// keyword lists and the benchmark style profile.
//
// Tables are data, not code. An embedded YAML file provides defaults and
// an external YAML file may extend or replace any section without
// touching the resolution algorithms.
package tables

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/seenimoa/form13f/pkg/models"
)

//go:embed defaults.yaml
var defaultYAML []byte

// Tables is the complete set of normalization tables.
type Tables struct {
	CodeTickers           map[string]string         `yaml:"code_tickers"`
	IssuerTickers         map[string]string         `yaml:"issuer_tickers"`
	StopWords             []string                  `yaml:"stop_words"`
	Abbreviations         map[string]string         `yaml:"abbreviations"`
	GenericIssuerPrefixes []string                  `yaml:"generic_issuer_prefixes"`
	EntitySuffixes        []string                  `yaml:"entity_suffixes"`
	Acronyms              []string                  `yaml:"acronyms"`
	ClassTrackers         []ClassTracker            `yaml:"class_trackers"`
	TickerBuckets         map[string]models.Bucket  `yaml:"ticker_buckets"`
	BucketKeywords        []BucketTerms             `yaml:"bucket_keywords"`
	FundMarkers           []string                  `yaml:"fund_markers"`
	FundSponsors          []string                  `yaml:"fund_sponsors"`
	IndexMarkers          []string                  `yaml:"index_markers"`
	FundSectorKeywords    []BucketTerms             `yaml:"fund_sector_keywords"`
	Benchmark             map[models.Bucket]float64 `yaml:"benchmark"`

	stopWords      map[string]struct{}
	genericPrefix  map[string]struct{}
	entitySuffixes map[string]struct{}
	acronyms       map[string]struct{}
}

// ClassTracker names the tracking stocks of a multi-class issuer family.
type ClassTracker struct {
	IssuerPrefix string            `yaml:"issuer_prefix"`
	Names        map[string]string `yaml:"names"`
}

// TrackerName is one keyword -> display name pair.
type TrackerName struct {
	Keyword string
	Name    string
}

// SortedNames returns the tracker names, longest keyword first.
func (c ClassTracker) SortedNames() []TrackerName {
	out := make([]TrackerName, 0, len(c.Names))
	for k, v := range c.Names {
		out = append(out, TrackerName{Keyword: k, Name: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Keyword) != len(out[j].Keyword) {
			return len(out[i].Keyword) > len(out[j].Keyword)
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

// BucketTerms is an ordered keyword list for one bucket.
type BucketTerms struct {
	Bucket models.Bucket `yaml:"bucket"`
	Terms  []string      `yaml:"terms"`
}

// Default returns the embedded default tables.
func Default() (*Tables, error) {
	t, err := parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded tables: %w", err)
	}
	if err := t.freeze(); err != nil {
		return nil, fmt.Errorf("embedded tables: %w", err)
	}
	return t, nil
}

// MustDefault is Default for package-level initialization and tests.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Load returns the default tables extended by the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (*Tables, error) {
	base, err := parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded tables: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tables %s: %w", path, err)
		}
		overlay, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse tables %s: %w", path, err)
		}
		base.merge(overlay)
	}
	if err := base.freeze(); err != nil {
		return nil, err
	}
	return base, nil
}

func parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// merge folds overlay into t: maps key by key, non-empty lists replace.
func (t *Tables) merge(o *Tables) {
	t.CodeTickers = mergeMap(t.CodeTickers, o.CodeTickers)
	t.IssuerTickers = mergeMap(t.IssuerTickers, o.IssuerTickers)
	t.Abbreviations = mergeMap(t.Abbreviations, o.Abbreviations)
	if t.TickerBuckets == nil {
		t.TickerBuckets = map[string]models.Bucket{}
	}
	for k, v := range o.TickerBuckets {
		t.TickerBuckets[k] = v
	}
	if len(o.Benchmark) > 0 {
		t.Benchmark = o.Benchmark
	}
	replace := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	replace(&t.StopWords, o.StopWords)
	replace(&t.GenericIssuerPrefixes, o.GenericIssuerPrefixes)
	replace(&t.EntitySuffixes, o.EntitySuffixes)
	replace(&t.Acronyms, o.Acronyms)
	replace(&t.FundMarkers, o.FundMarkers)
	replace(&t.FundSponsors, o.FundSponsors)
	replace(&t.IndexMarkers, o.IndexMarkers)
	if len(o.ClassTrackers) > 0 {
		t.ClassTrackers = o.ClassTrackers
	}
	if len(o.BucketKeywords) > 0 {
		t.BucketKeywords = o.BucketKeywords
	}
	if len(o.FundSectorKeywords) > 0 {
		t.FundSectorKeywords = o.FundSectorKeywords
	}
}

func mergeMap(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// freeze upper-cases vocabularies, builds lookup sets and validates.
func (t *Tables) freeze() error {
	t.CodeTickers = upperMap(t.CodeTickers)
	t.Abbreviations = upperMap(t.Abbreviations)
	t.IssuerTickers = upperValues(t.IssuerTickers)
	buckets := make(map[string]models.Bucket, len(t.TickerBuckets))
	for k, v := range t.TickerBuckets {
		buckets[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	t.TickerBuckets = buckets

	t.stopWords = toSet(t.StopWords)
	t.genericPrefix = toSet(t.GenericIssuerPrefixes)
	t.entitySuffixes = toSet(t.EntitySuffixes)
	t.acronyms = toSet(t.Acronyms)

	for from, to := range t.Abbreviations {
		if to == "" || strings.ContainsAny(to, " \t") {
			return fmt.Errorf("abbreviation %s: expansion %q must be a single token", from, to)
		}
		if _, chained := t.Abbreviations[to]; chained {
			return fmt.Errorf("abbreviation %s: expansion %s is itself abbreviated", from, to)
		}
	}
	for ticker, b := range t.TickerBuckets {
		if !b.Valid() {
			return fmt.Errorf("ticker bucket %s: unknown bucket %q", ticker, b)
		}
	}
	for _, list := range [][]BucketTerms{t.BucketKeywords, t.FundSectorKeywords} {
		for _, bt := range list {
			if !bt.Bucket.Valid() {
				return fmt.Errorf("keyword list: unknown bucket %q", bt.Bucket)
			}
		}
	}
	if len(t.Benchmark) > 0 {
		var sum float64
		for b, w := range t.Benchmark {
			if !b.Valid() {
				return fmt.Errorf("benchmark: unknown bucket %q", b)
			}
			if w < 0 {
				return fmt.Errorf("benchmark: negative weight for %s", b)
			}
			sum += w
		}
		if math.Abs(sum-1) > 1e-6 {
			return fmt.Errorf("benchmark weights sum to %.6f, want 1", sum)
		}
	}
	return nil
}

func upperMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}

func upperValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return set
}

// IsStopWord reports whether tok is dropped from issuer keys.
func (t *Tables) IsStopWord(tok string) bool {
	_, ok := t.stopWords[tok]
	return ok
}

// IsGenericIssuerPrefix reports whether tok is a generic fund sponsor.
func (t *Tables) IsGenericIssuerPrefix(tok string) bool {
	_, ok := t.genericPrefix[tok]
	return ok
}

// IsEntitySuffix reports whether tok is a legal-entity suffix.
func (t *Tables) IsEntitySuffix(tok string) bool {
	_, ok := t.entitySuffixes[tok]
	return ok
}

// IsAcronym reports whether tok stays upper-case when re-casing names.
func (t *Tables) IsAcronym(tok string) bool {
	_, ok := t.acronyms[tok]
	return ok
}

// Abbreviation returns the expansion of tok, if any.
func (t *Tables) Abbreviation(tok string) (string, bool) {
	v, ok := t.Abbreviations[tok]
	return v, ok
}

// BenchmarkProfile returns a copy of the benchmark distribution.
func (t *Tables) BenchmarkProfile() models.StyleProfile {
	out := make(models.StyleProfile, len(t.Benchmark))
	for k, v := range t.Benchmark {
		out[k] = v
	}
	return out
}
