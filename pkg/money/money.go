// Package money holds the integer-cents arithmetic used for order and invoice totals.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseRate parses a decimal tax rate such as "0.19". Empty input yields zero.
func ParseRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate %q: %w", raw, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("rate %q must be between 0 and 1", raw)
	}
	return rate, nil
}

// Tax returns base*rate rounded half away from zero to whole cents.
func Tax(baseCents int64, rate decimal.Decimal) int64 {
	if baseCents <= 0 || rate.IsZero() {
		return 0
	}
	return decimal.NewFromInt(baseCents).Mul(rate).Round(0).IntPart()
}

// LineTotal multiplies a unit price by a quantity.
func LineTotal(unitCents int64, quantity int) int64 {
	return unitCents * int64(quantity)
}

// Format renders cents as a currency amount, e.g. "3,800.00 DZD".
func Format(cents int64, currency string) string {
	amount := decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
	neg := strings.HasPrefix(amount, "-")
	amount = strings.TrimPrefix(amount, "-")

	whole, frac, _ := strings.Cut(amount, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	if currency = strings.TrimSpace(currency); currency != "" {
		out += " " + currency
	}
	return out
}
