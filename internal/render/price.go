package render

import (
	"strings"
	"unicode/utf8"
)

// FormatPrice prefixes price with currency.  A price that already starts
// with the currency text is returned as is, so the function is idempotent.
// Multi-character currencies ("Rp", "USD") are separated by a space;
// single symbols ("$", "€") are not.
func FormatPrice(price, currency string) string {
	price = strings.TrimSpace(price)
	currency = strings.TrimSpace(currency)

	switch {
	case price == "":
		return ""
	case currency == "":
		return price
	case strings.HasPrefix(price, currency):
		return price
	case utf8.RuneCountInString(currency) > 1:
		return currency + " " + price
	default:
		return currency + price
	}
}
