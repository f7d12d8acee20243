// Package currency is the static directory of supported currencies and the
// amount formatting built on it.
package currency

import (
	"strings"

	"github.com/theirongolddev/tripbudget/internal/i18n"
)

// Currency describes one supported currency.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	NameAr string `json:"nameAr"`
	Symbol string `json:"symbol"`
}

// LocalName returns the currency name in l.
func (c Currency) LocalName(l i18n.Language) string {
	if l == i18n.Arabic {
		return c.NameAr
	}
	return c.Name
}

var directory = []Currency{
	// Arab currencies
	{"SAR", "Saudi Riyal", "ريال سعودي", "ر.س"},
	{"AED", "UAE Dirham", "درهم إماراتي", "د.إ"},
	{"KWD", "Kuwaiti Dinar", "دينار كويتي", "د.ك"},
	{"QAR", "Qatari Riyal", "ريال قطري", "ر.ق"},
	{"OMR", "Omani Riyal", "ريال عماني", "ر.ع"},
	{"BHD", "Bahraini Dinar", "دينار بحريني", "د.ب"},
	{"JOD", "Jordanian Dinar", "دينار أردني", "د.أ"},
	{"EGP", "Egyptian Pound", "جنيه مصري", "ج.م"},
	{"LBP", "Lebanese Pound", "ليرة لبنانية", "ل.ل"},

	// Majors
	{"USD", "US Dollar", "دولار أمريكي", "$"},
	{"EUR", "Euro", "يورو", "€"},
	{"GBP", "British Pound", "جنيه إسترليني", "£"},
	{"JPY", "Japanese Yen", "ين ياباني", "¥"},
	{"CHF", "Swiss Franc", "فرنك سويسري", "CHF"},
	{"CAD", "Canadian Dollar", "دولار كندي", "C$"},
	{"AUD", "Australian Dollar", "دولار أسترالي", "A$"},

	// Asia
	{"CNY", "Chinese Yuan", "يوان صيني", "¥"},
	{"INR", "Indian Rupee", "روبية هندية", "₹"},
	{"KRW", "South Korean Won", "وون كوري جنوبي", "₩"},
	{"SGD", "Singapore Dollar", "دولار سنغافوري", "S$"},
	{"HKD", "Hong Kong Dollar", "دولار هونغ كونغ", "HK$"},
	{"THB", "Thai Baht", "بات تايلندي", "฿"},
	{"MYR", "Malaysian Ringgit", "رينغيت ماليزي", "RM"},

	// Europe
	{"SEK", "Swedish Krona", "كرونة سويدية", "kr"},
	{"NOK", "Norwegian Krone", "كرونة نرويجية", "kr"},
	{"DKK", "Danish Krone", "كرونة دنماركية", "kr"},
	{"PLN", "Polish Zloty", "زلوتي بولندي", "zł"},
	{"CZK", "Czech Koruna", "كورونا تشيكية", "Kč"},
	{"HUF", "Hungarian Forint", "فورنت مجري", "Ft"},

	// Other
	{"RUB", "Russian Ruble", "روبل روسي", "₽"},
	{"TRY", "Turkish Lira", "ليرة تركية", "₺"},
	{"ZAR", "South African Rand", "راند جنوب أفريقي", "R"},
	{"BRL", "Brazilian Real", "ريال برازيلي", "R$"},
	{"MXN", "Mexican Peso", "بيزو مكسيكي", "$"},
	{"NZD", "New Zealand Dollar", "دولار نيوزيلندي", "NZ$"},
}

var popularCodes = map[string]bool{
	"SAR": true, "USD": true, "EUR": true, "GBP": true,
	"AED": true, "JPY": true, "CAD": true, "AUD": true,
}

// All returns every supported currency in directory order.
func All() []Currency {
	out := make([]Currency, len(directory))
	copy(out, directory)
	return out
}

// Find looks a currency up by code, ignoring case and surrounding space.
func Find(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range directory {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Known reports whether code is in the directory.
func Known(code string) bool {
	_, ok := Find(code)
	return ok
}

// Search returns the currencies whose code, name in l, or symbol contains
// query. An empty query returns everything.
func Search(query string, l i18n.Language) []Currency {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return All()
	}
	var out []Currency
	for _, c := range directory {
		if strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(c.LocalName(l)), q) ||
			strings.Contains(strings.ToLower(c.Symbol), q) {
			out = append(out, c)
		}
	}
	return out
}

// Popular returns the short list offered first in pickers.
func Popular() []Currency {
	var out []Currency
	for _, c := range directory {
		if popularCodes[c.Code] {
			out = append(out, c)
		}
	}
	return out
}

// Name returns the display name of code in l, or code itself when unknown.
func Name(code string, l i18n.Language) string {
	if c, ok := Find(code); ok {
		return c.LocalName(l)
	}
	return code
}

// Symbol returns the symbol for code, or code itself when unknown.
func Symbol(code string) string {
	if c, ok := Find(code); ok {
		return c.Symbol
	}
	return code
}
