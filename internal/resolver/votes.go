package resolver

import (
	"github.com/seenimoa/form13f/internal/tables"
	"github.com/seenimoa/form13f/pkg/models"
)

// Indexes are the cross-filing ticker vote maps. They are built once from
// the full corpus and are read-only afterwards; a nil *Indexes is valid
// and answers every lookup with "no data".
type Indexes struct {
	byCode   map[string]string
	byIssuer map[string]string
}

// tally counts, per lookup key, how many filings asserted each ticker.
type tally map[string]map[string]int

func (t tally) add(key, ticker string) {
	if key == "" || ticker == "" {
		return
	}
	m, ok := t[key]
	if !ok {
		m = make(map[string]int)
		t[key] = m
	}
	m[ticker]++
}

// winners picks the plurality ticker per key; ties go to the shorter
// ticker, then to the lexically smaller one.
func (t tally) winners() map[string]string {
	out := make(map[string]string, len(t))
	for key, counts := range t {
		best, bestN := "", 0
		for ticker, n := range counts {
			if beats(ticker, n, best, bestN) {
				best, bestN = ticker, n
			}
		}
		out[key] = best
	}
	return out
}

func beats(ticker string, n int, best string, bestN int) bool {
	if n != bestN {
		return n > bestN
	}
	if len(ticker) != len(best) {
		return len(ticker) < len(best)
	}
	return ticker < best
}

type voteKey struct{ key, ticker string }

// BuildIndexes aggregates ticker votes across every filing. A row votes
// only with the ticker derived from its raw ticker or its code (never from
// overrides or other votes), and each filing counts once per key.
func BuildIndexes(t *tables.Tables, filings []models.Filing) *Indexes {
	codes, issuers := tally{}, tally{}
	for _, f := range filings {
		seenCode := map[voteKey]struct{}{}
		seenIssuer := map[voteKey]struct{}{}
		for _, h := range f.Holdings {
			code := h.ReportedCode()
			ticker, _ := directTicker(code, h.Ticker)
			if ticker == "" {
				continue
			}
			ck := voteKey{NormalizeCode(code), ticker}
			if _, dup := seenCode[ck]; !dup {
				seenCode[ck] = struct{}{}
				codes.add(ck.key, ticker)
			}
			ik := voteKey{NormalizeIssuer(t, h.Issuer), ticker}
			if _, dup := seenIssuer[ik]; !dup {
				seenIssuer[ik] = struct{}{}
				issuers.add(ik.key, ticker)
			}
		}
	}
	return &Indexes{byCode: codes.winners(), byIssuer: issuers.winners()}
}

// ByCode returns the consensus ticker for a normalized code.
func (idx *Indexes) ByCode(code string) (string, bool) {
	if idx == nil {
		return "", false
	}
	v, ok := idx.byCode[code]
	return v, ok
}

// ByIssuer returns the consensus ticker for a normalized issuer key.
func (idx *Indexes) ByIssuer(key string) (string, bool) {
	if idx == nil {
		return "", false
	}
	v, ok := idx.byIssuer[key]
	return v, ok
}

// Len returns the number of code and issuer keys with a consensus.
func (idx *Indexes) Len() (codes, issuers int) {
	if idx == nil {
		return 0, 0
	}
	return len(idx.byCode), len(idx.byIssuer)
}
