// Package types provides numeric helpers shared by planning calculations.
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// Ratio is the raw-material-per-unit factor of a technological card.
// Kept exact so that fan-in sums do not accumulate binary rounding noise.
type Ratio = decimal.Decimal

// CompareEpsilon is the tolerance under which a saved and a calculated
// quantity are considered equal.
const CompareEpsilon = 0.01

// MustRatio creates a Ratio from a string, panics on error.
// Use only for constants and test fixtures.
func MustRatio(s string) Ratio {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MulRatio multiplies a quantity by a ratio.
func MulRatio(q float64, r Ratio) float64 {
	f, _ := decimal.NewFromFloat(q).Mul(r).Float64()
	return f
}

// RoundQuantity rounds to the nearest integer unit, half away from zero.
// Applied only when a calculated value is persisted.
func RoundQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(q).Round(0).Float64()
	return f
}

// NearlyEqual reports whether |a-b| < CompareEpsilon.
func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < CompareEpsilon
}

// Round2 rounds to two decimals for display fields such as averages.
func Round2(q float64) float64 {
	f, _ := decimal.NewFromFloat(q).Round(2).Float64()
	return f
}
