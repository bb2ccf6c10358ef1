// Package format renders money for humans.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// DecimalCurrency formats an exact amount the same way as Currency, rounding
// half away from zero to cents.
func DecimalCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	formatted := groupThousands(rounded.Abs().StringFixed(2))
	if rounded.IsNegative() {
		return "-$" + formatted
	}
	return "$" + formatted
}

func formatPositiveCurrency(value float64) string {
	return groupThousands(fmt.Sprintf("%.2f", value))
}

func groupThousands(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
