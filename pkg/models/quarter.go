package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Quarter is a calendar quarter in the "YYYYQn" form used by filings.
type Quarter struct {
	Year int
	Q    int
}

// ParseQuarter parses "2024Q3" (case-insensitive).
func ParseQuarter(s string) (Quarter, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	idx := strings.IndexByte(s, 'Q')
	if idx != 4 || len(s) != 6 {
		return Quarter{}, false
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return Quarter{}, false
	}
	q, err := strconv.Atoi(s[5:])
	if err != nil || q < 1 || q > 4 {
		return Quarter{}, false
	}
	return Quarter{Year: year, Q: q}, true
}

// String returns the "YYYYQn" form.
func (q Quarter) String() string {
	return fmt.Sprintf("%04dQ%d", q.Year, q.Q)
}

// Index returns a monotonically increasing ordinal for the quarter.
func (q Quarter) Index() int {
	return q.Year*4 + q.Q - 1
}

// CompareQuarters orders quarter strings chronologically. Unparsable
// quarters sort after valid ones, lexically among themselves.
func CompareQuarters(a, b string) int {
	qa, okA := ParseQuarter(a)
	qb, okB := ParseQuarter(b)
	switch {
	case okA && okB:
		return qa.Index() - qb.Index()
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

// SortQuarters sorts quarter strings chronologically in place.
func SortQuarters(qs []string) {
	sort.SliceStable(qs, func(i, j int) bool {
		return CompareQuarters(qs[i], qs[j]) < 0
	})
}
