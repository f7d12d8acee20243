// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
)

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDate formats a calendar date, e.g. 2026-03-01.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// FormatAge formats how long ago t was.
// e.g., 45s -> "45s ago", 3725s -> "1h 2m ago"
func FormatAge(t, now time.Time) string {
	secs := int64(now.Sub(t).Seconds())
	if secs < 0 {
		secs = 0
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	switch {
	case hours >= 48:
		return fmt.Sprintf("%dd ago", hours/24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm ago", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm ago", mins)
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}

// FormatRate formats an exchange rate with four fraction digits.
func FormatRate(rate decimal.Decimal) string {
	return rate.StringFixed(4)
}

// FormatSigned formats an amount with an explicit sign.
// e.g., 120 USD -> "+$120.00", -5 SAR -> "-5.00 ر.س"
func FormatSigned(amount decimal.Decimal, code string, l i18n.Language) string {
	if amount.IsNegative() {
		return "-" + currency.FormatAmount(amount.Neg(), code, l)
	}
	return "+" + currency.FormatAmount(amount, code, l)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
