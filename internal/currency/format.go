package currency

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripbudget/internal/i18n"
)

// prefixSymbols are written before the number in English.
var prefixSymbols = map[string]bool{"$": true, "£": true, "€": true, "¥": true}

// FormatNumber renders amount with two fraction digits and the grouping
// rules of l.
func FormatNumber(amount decimal.Decimal, l i18n.Language) string {
	return i18n.Printer(l).Sprintf("%.2f", amount.Round(2).InexactFloat64())
}

// FormatAmount renders amount in code for display. Arabic always puts the
// symbol after the number; English prefixes $ £ € ¥ and suffixes the rest.
func FormatAmount(amount decimal.Decimal, code string, l i18n.Language) string {
	num := FormatNumber(amount, l)
	sym := Symbol(code)
	if l == i18n.English && prefixSymbols[sym] {
		return sym + num
	}
	return num + " " + sym
}
