package resolver

import (
	"regexp"
	"strings"

	"github.com/seenimoa/form13f/internal/tables"
)

var (
	parenRe   = regexp.MustCompile(`\([^)]*\)`)
	nonWordRe = regexp.MustCompile(`[^A-Z0-9 ]+`)
	spaceRe   = regexp.MustCompile(`\s+`)
	tickerRe  = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,6}$`)
)

// NormalizeIssuer reduces issuer free text to a lookup key: upper-case,
// "&" spelled out, parentheticals and punctuation removed, abbreviations
// expanded and stop words dropped. It is idempotent.
func NormalizeIssuer(t *tables.Tables, issuer string) string {
	text := strings.ToUpper(issuer)
	text = strings.ReplaceAll(text, "&", " AND ")
	text = parenRe.ReplaceAllString(text, " ")
	text = nonWordRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if text == "" {
		return ""
	}
	tokens := strings.Split(text, " ")
	out := tokens[:0]
	for _, tok := range tokens {
		if exp, ok := t.Abbreviation(tok); ok {
			tok = exp
		}
		if t.IsStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// NormalizeCode upper-cases and trims a CUSIP-like code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeTicker upper-cases a ticker and maps share-class dots to
// dashes ("BRK.B" -> "BRK-B").
func NormalizeTicker(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), ".", "-")
}

// LooksLikeTicker reports whether s is syntactically a US ticker: starts
// with a letter, 1-7 characters of letters, digits, "." or "-".
func LooksLikeTicker(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	return tickerRe.MatchString(s)
}

// firstToken returns the first space-separated token of s.
func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
