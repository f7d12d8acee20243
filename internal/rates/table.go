package rates

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origin records where a table came from.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginFallback Origin = "fallback"
)

// Table maps currency codes to units of that currency per one unit of Base.
// A published table is never modified; refreshes replace it.
type Table struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	UpdatedAt time.Time                  `json:"updatedAt"`
	AsOf      time.Time                  `json:"asOf,omitempty"`
	Origin    Origin                     `json:"origin"`
}

// Lookup returns the rate for code. The base currency is always 1.
func (t Table) Lookup(code string) (decimal.Decimal, bool) {
	if code == t.Base {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Decimal{}, false
	}
	return r, true
}

// Rebase expresses t against base instead of t.Base. ok is false when t
// has no rate for base.
func (t Table) Rebase(base string) (out Table, ok bool) {
	if base == t.Base {
		return t, true
	}
	pivot, ok := t.Lookup(base)
	if !ok {
		return Table{}, false
	}
	r := make(map[string]decimal.Decimal, len(t.Rates)+1)
	for code, rate := range t.Rates {
		r[code] = rate.Div(pivot)
	}
	r[t.Base] = decimal.NewFromInt(1).Div(pivot)
	r[base] = decimal.NewFromInt(1)
	out = t
	out.Base = base
	out.Rates = r
	return out, true
}

// Len returns how many rates the table carries.
func (t Table) Len() int { return len(t.Rates) }

// FallbackBase is the base currency of the bundled table.
const FallbackBase = "USD"

var fallbackRates = map[string]string{
	"SAR": "3.75", "AED": "3.67", "EUR": "0.85", "GBP": "0.73", "JPY": "110",
	"CAD": "1.25", "AUD": "1.35", "CHF": "0.92", "CNY": "6.45", "INR": "74.5",
	"KWD": "0.30", "QAR": "3.64", "OMR": "0.38", "BHD": "0.38", "JOD": "0.71",
	"EGP": "30.9", "LBP": "1507", "SEK": "8.5", "NOK": "8.2", "DKK": "6.3",
	"PLN": "3.9", "CZK": "21.5", "HUF": "295", "RUB": "74", "TRY": "8.5",
	"ZAR": "14.8", "BRL": "5.2", "MXN": "17.1", "NZD": "1.4", "SGD": "1.35",
	"HKD": "7.8", "THB": "31.2", "MYR": "4.15", "KRW": "1180",
}

// FallbackTable returns the bundled static table. It has no UpdatedAt.
func FallbackTable() Table {
	r := make(map[string]decimal.Decimal, len(fallbackRates)+1)
	r[FallbackBase] = decimal.NewFromInt(1)
	for code, s := range fallbackRates {
		r[code] = decimal.RequireFromString(s)
	}
	return Table{Base: FallbackBase, Rates: r, Origin: OriginFallback}
}
