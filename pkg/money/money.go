// Package money routes every monetary computation through exact decimal
// arithmetic. Binary floating point is never used for currency or rate values.
//
// All rounding is half-up (half away from zero) at the requested scale:
// currency amounts use ScaleCurrency, rate fractions use ScaleRate. The mode
// is applied uniformly across the codebase and pinned by tests.
package money

import "github.com/shopspring/decimal"

const (
	// ScaleCurrency is the fractional precision of money amounts.
	ScaleCurrency = 2
	// ScaleRate is the fractional precision of rate fractions.
	ScaleRate = 4
)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Add returns a+b rounded half-up to scale fractional digits.
func Add(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return a.Add(b).Round(scale)
}

// Mul returns a*b rounded half-up to scale fractional digits.
func Mul(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return a.Mul(b).Round(scale)
}

// Round2 rounds v half-up to currency scale.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(ScaleCurrency)
}

// Parse converts a decimal string into an exact decimal value.
func Parse(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(value)
}

// MustParse converts a trusted decimal literal, panicking on malformed input.
// Reserved for constants and test fixtures.
func MustParse(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// String2 formats v with exactly two fractional digits.
func String2(v decimal.Decimal) string {
	return v.StringFixed(ScaleCurrency)
}

// String4 formats v with exactly four fractional digits.
func String4(v decimal.Decimal) string {
	return v.StringFixed(ScaleRate)
}
