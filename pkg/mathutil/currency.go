// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// PercentToDecimal converts a percentage as typed in a form (5 means 5%)
// into a decimal fraction.
func PercentToDecimal(percent float64) float64 {
	return percent / constants.PercentageMultiplier
}

// ProgressPercent returns how far value is toward total, clamped to [0, 100].
func ProgressPercent(value, total float64) float64 {
	if total <= 0 {
		return 0
	}
	pct := (value / total) * constants.PercentageMultiplier
	if pct < 0 {
		return 0
	}
	if pct > constants.PercentageMultiplier {
		return constants.PercentageMultiplier
	}
	return pct
}
