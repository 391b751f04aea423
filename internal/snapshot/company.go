package snapshot

import (
	"strings"
	"unicode"

	"github.com/seenimoa/form13f/internal/tables"
)

// CleanCompany turns SEC issuer text into a display name. Trailing legal
// entity suffixes are dropped, along with a "COM" directly in front of a
// dropped suffix ("XYZ COM INC" -> "XYZ"), and any "&" or "AND" left
// dangling at the end. Raw all-caps names are title-cased, keeping known
// acronyms; mixed-case names are left alone.
func CleanCompany(t *tables.Tables, issuer string) string {
	fields := strings.Fields(issuer)
	if len(fields) == 0 {
		return ""
	}
	collapsed := strings.Join(fields, " ")

	tokens := fields
	stripped := false
	for len(tokens) > 0 {
		last := suffixToken(tokens[len(tokens)-1])
		if !t.IsEntitySuffix(last) {
			break
		}
		stripped = true
		tokens = tokens[:len(tokens)-1]
		if len(tokens) > 0 && suffixToken(tokens[len(tokens)-1]) == "COM" {
			tokens = tokens[:len(tokens)-1]
		}
	}
	// "WELLS FARGO & CO" leaves a dangling connector.
	for stripped && len(tokens) > 1 && isConnector(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 0 {
		return collapsed
	}
	tokens[len(tokens)-1] = strings.TrimRight(tokens[len(tokens)-1], ".,")
	residual := strings.Join(tokens, " ")
	if residual == "" {
		return collapsed
	}
	if hasLower(residual) {
		return residual
	}
	return titleCase(t, tokens)
}

func suffixToken(tok string) string {
	return strings.ToUpper(strings.Trim(tok, ".,"))
}

func isConnector(tok string) bool {
	switch suffixToken(tok) {
	case "", "&", "AND":
		return true
	}
	return false
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func titleCase(t *tables.Tables, tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if t.IsAcronym(strings.ToUpper(strings.Trim(tok, ".,"))) {
			out = append(out, tok)
			continue
		}
		out = append(out, titleWord(tok))
	}
	return strings.Join(out, " ")
}

// titleWord upper-cases the first letter of each letter run. Apostrophes
// continue a run ("MACY'S" -> "Macy's"), digits do not ("3M" stays).
func titleWord(tok string) string {
	var b strings.Builder
	b.Grow(len(tok))
	inWord := false
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			inWord = true
		case r == '\'' && inWord:
			b.WriteRune(r)
		default:
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}
