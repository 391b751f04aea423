// Package utils provides formatting helpers for holdings output.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD formats a dollar amount with thousands separators ($1,234,567.89).
func FormatUSD(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	cents := int64(math.Round(amount * 100))
	formatted := fmt.Sprintf("%s.%02d", groupThousands(cents/100), cents%100)

	if negative {
		return "-$" + formatted
	}
	return "$" + formatted
}

// FormatUSDCompact formats a dollar amount in short-scale notation.
// e.g., 1927345 → "$1.93M", 352400000000 → "$352.4B"
func FormatUSDCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	prefix := "$"
	if negative {
		prefix = "-$"
	}

	switch {
	case amount >= 1e12:
		return prefix + formatWithDecimals(amount/1e12) + "T"
	case amount >= 1e9:
		return prefix + formatWithDecimals(amount/1e9) + "B"
	case amount >= 1e6:
		return prefix + formatWithDecimals(amount/1e6) + "M"
	case amount >= 1e3:
		return prefix + formatWithDecimals(amount/1e3) + "K"
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// FormatPct formats a fraction as a signed percentage.
// e.g., 0.0245 → "+2.45%", -0.0123 → "-1.23%"
func FormatPct(ratio float64) string {
	pct := ratio * 100
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatShares formats a share count with thousands separators, keeping
// up to four decimals for fractional counts.
func FormatShares(shares float64) string {
	negative := shares < 0
	shares = math.Abs(shares)

	whole := math.Floor(shares)
	s := groupThousands(int64(whole))
	if frac := shares - whole; frac > 1e-9 {
		dec := strings.TrimRight(fmt.Sprintf("%.4f", frac), "0")
		if dec != "0." && dec != "1." {
			s += dec[1:]
		}
	}
	if negative {
		return "-" + s
	}
	return s
}

// groupThousands formats a non-negative integer with Western grouping.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
