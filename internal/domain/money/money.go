// Package money provides deterministic decimal arithmetic for currency
// amounts. All monetary values in the system are shopspring decimals; the
// helpers here pin down the rounding contract so that repeated recomputation
// never drifts.
package money

import "github.com/shopspring/decimal"

// Scale is the number of minor-unit digits amounts are rounded to.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round rounds an amount half-away-from-zero to the currency's minor unit.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// RoundRating rounds to one decimal place, used for product rating summaries.
func RoundRating(v decimal.Decimal) decimal.Decimal {
	return v.Round(1)
}

// Percent computes amount × rate / 100 without rounding. Rounding is applied
// once at the edge of a computation, never at intermediates, so percentage
// application does not compound rounding error.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// FloorAtZero clamps negative amounts to zero.
func FloorAtZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	return decimal.Min(a, b)
}
