package output

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FormatCurrency formats a decimal as USD currency with 2 decimals.
// Kept here so it can be reused by multiple formatters and unit tested in isolation.
func FormatCurrency(amount decimal.Decimal) string { return "$" + amount.StringFixed(2) }

// FormatPercentage formats a fractional rate (0.1 = 10%) as a percentage
// with 2 decimals.
func FormatPercentage(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(2) + "%"
}

// FormatRatio formats a unitless ratio (e.g. Sharpe) with 2 decimals.
func FormatRatio(value decimal.Decimal) string { return value.StringFixed(2) }
