// Package resolver maps SEC-reported security identifiers (CUSIP-like
// codes, issuer free text, raw ticker fields) to canonical US tickers.
//
// Resolution runs a fixed priority chain and stops at the first rule
// that yields a ticker:
//
//  1. code override table
//  2. raw ticker, when it looks like a ticker
//  3. the code itself, when it looks like a ticker
//  4. code vote map
//  5. issuer override table
//  6. issuer vote map (skipped for generic fund-sponsor issuers)
//
// An unresolved row keeps an empty ticker.
package resolver

import (
	"github.com/seenimoa/form13f/internal/tables"
	"github.com/seenimoa/form13f/pkg/models"
)

// Rule names the step of the chain that produced a ticker.
type Rule string

const (
	RuleCodeOverride   Rule = "code_override"
	RuleRawTicker      Rule = "raw_ticker"
	RuleCodeTicker     Rule = "code_ticker"
	RuleCodeVote       Rule = "code_vote"
	RuleIssuerOverride Rule = "issuer_override"
	RuleIssuerVote     Rule = "issuer_vote"
	RuleUnresolved     Rule = ""
)

// Resolution is the outcome of resolving one row.
type Resolution struct {
	Ticker string `json:"ticker"`
	Rule   Rule   `json:"rule"`
}

// Resolved reports whether a ticker was found.
func (r Resolution) Resolved() bool {
	return r.Ticker != ""
}

// Resolver resolves rows against the override tables and, when present,
// the corpus vote maps. It is safe for concurrent use.
type Resolver struct {
	tables    *tables.Tables
	issuerMap map[string]string
	indexes   *Indexes
}

// New creates a resolver. idx may be nil, in which case the vote rules
// never match.
func New(t *tables.Tables, idx *Indexes) *Resolver {
	issuers := make(map[string]string, len(t.IssuerTickers))
	for raw, ticker := range t.IssuerTickers {
		if key := NormalizeIssuer(t, raw); key != "" {
			issuers[key] = ticker
		}
	}
	return &Resolver{tables: t, issuerMap: issuers, indexes: idx}
}

// Tables returns the tables the resolver was built with.
func (r *Resolver) Tables() *tables.Tables {
	return r.tables
}

// Resolve runs the priority chain for one (code, raw ticker, issuer) row.
func (r *Resolver) Resolve(code, rawTicker, issuer string) Resolution {
	normCode := NormalizeCode(code)
	if t, ok := r.tables.CodeTickers[normCode]; ok && t != "" {
		return Resolution{Ticker: t, Rule: RuleCodeOverride}
	}
	if t, rule := directTicker(code, rawTicker); t != "" {
		return Resolution{Ticker: t, Rule: rule}
	}
	if t, ok := r.indexes.ByCode(normCode); ok && t != "" {
		return Resolution{Ticker: t, Rule: RuleCodeVote}
	}
	key := NormalizeIssuer(r.tables, issuer)
	if key == "" {
		return Resolution{}
	}
	if t, ok := r.issuerMap[key]; ok && t != "" {
		return Resolution{Ticker: t, Rule: RuleIssuerOverride}
	}
	if r.tables.IsGenericIssuerPrefix(firstToken(key)) {
		return Resolution{}
	}
	if t, ok := r.indexes.ByIssuer(key); ok && t != "" {
		return Resolution{Ticker: t, Rule: RuleIssuerVote}
	}
	return Resolution{}
}

// directTicker applies rules 2 and 3: the raw ticker field, then the code.
func directTicker(code, rawTicker string) (string, Rule) {
	if LooksLikeTicker(rawTicker) {
		return NormalizeTicker(rawTicker), RuleRawTicker
	}
	if LooksLikeTicker(code) {
		return NormalizeTicker(code), RuleCodeTicker
	}
	return "", RuleUnresolved
}

// Identity picks a row's stable identity: the code, else the resolved
// ticker, else the issuer text.
func Identity(code, ticker, issuer string) models.HoldingIdentity {
	switch {
	case code != "":
		return models.HoldingIdentity{Kind: models.IdentityCode, Value: code}
	case ticker != "":
		return models.HoldingIdentity{Kind: models.IdentityTicker, Value: ticker}
	case issuer != "":
		return models.HoldingIdentity{Kind: models.IdentityIssuer, Value: issuer}
	}
	return models.HoldingIdentity{}
}
