// Package money holds the shared display helpers for monetary and percentage
// values. Calculations stay on decimal.Decimal throughout the engine; this
// package only rounds and formats at the edges.
package money

import (
	"github.com/shopspring/decimal"
)

// Format formats an amount as currency with cents
func Format(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatWhole rounds to whole units, for table cells where cents are noise
func FormatWhole(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(0)
}

// FormatPercent renders a whole-percent value with two decimals
func FormatPercent(value decimal.Decimal) string {
	return value.StringFixed(2) + "%"
}
