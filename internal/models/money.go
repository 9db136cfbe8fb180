package models

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const currencyCode = money.USD

// USD formats an amount for display, e.g. "$1,234.50". Formatting is done on
// the decimal string so balances beyond the int64 range of go-money's minor
// units still render correctly; the symbol, separators and template come
// from go-money's currency table.
func USD(amount decimal.Decimal) string {
	cur := money.GetCurrency(currencyCode)

	fixed := amount.Abs().StringFixed(int32(cur.Fraction))
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(cur.Thousand)
		}
		b.WriteRune(digit)
	}
	if frac != "" {
		b.WriteString(cur.Decimal)
		b.WriteString(frac)
	}

	out := strings.Replace(cur.Template, "1", b.String(), 1)
	out = strings.Replace(out, "$", cur.Grapheme, 1)
	if amount.Round(int32(cur.Fraction)).IsNegative() {
		out = "-" + out
	}
	return out
}
