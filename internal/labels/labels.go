// Package labels assigns display labels that are unique within a snapshot.
package labels

import (
	"strconv"
	"strings"

	"github.com/seenimoa/form13f/pkg/models"
)

// Sep joins label segments.
const Sep = " · "

// BaseLabel is "Company (TICKER) · ClassTag", omitting absent segments.
// Rows without a company fall back to the ticker, then the code or key.
func BaseLabel(h models.NormalizedHolding) string {
	name := h.Company
	ticker := h.Ticker
	if name == "" {
		name, ticker = ticker, ""
	}
	if name == "" {
		name = h.Code
	}
	if name == "" {
		name = h.Key
	}
	label := name
	if ticker != "" && !strings.EqualFold(ticker, name) {
		label += " (" + ticker + ")"
	}
	if h.ClassTag != "" {
		label += Sep + h.ClassTag
	}
	return label
}

// Assign sets DisplayLabel on every holding so that no two share a label.
// Rows with a unique base label keep it; colliding rows get a CUSIP hint
// (or "Holding") and, if that still collides, a "#n" counter.
func Assign(holdings []models.NormalizedHolding) {
	bases := make([]string, len(holdings))
	counts := make(map[string]int, len(holdings))
	for i, h := range holdings {
		bases[i] = BaseLabel(h)
		counts[bases[i]]++
	}
	used := make(map[string]struct{}, len(holdings))
	for _, b := range bases {
		if counts[b] == 1 {
			used[b] = struct{}{}
		}
	}
	for i := range holdings {
		base := bases[i]
		if counts[base] == 1 {
			holdings[i].DisplayLabel = base
			continue
		}
		candidate := base + Sep + hint(holdings[i].Code)
		label := candidate
		for n := 2; ; n++ {
			if _, taken := used[label]; !taken {
				break
			}
			label = candidate + " #" + strconv.Itoa(n)
		}
		used[label] = struct{}{}
		holdings[i].DisplayLabel = label
	}
}

// hint is "CUSIP XXXX" from the last four characters of a 9-character
// alphanumeric code, else "Holding".
func hint(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 9 {
		return "Holding"
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "Holding"
		}
	}
	return "CUSIP " + code[5:]
}
