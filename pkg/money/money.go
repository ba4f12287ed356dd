// Package money renders decimal amounts for the till display.
package money

import (
	"github.com/shopspring/decimal"
)

// DefaultSymbol is the currency prefix used by the POS API's storefront.
const DefaultSymbol = "₱"

// Formatter prefixes amounts with a currency symbol and fixes two decimals.
type Formatter struct {
	Symbol string
}

// NewFormatter returns a formatter for symbol, falling back to DefaultSymbol.
func NewFormatter(symbol string) Formatter {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	return Formatter{Symbol: symbol}
}

// Format renders d as "<symbol><amount>" with exactly two fractional digits.
// Negative amounts keep the sign ahead of the symbol, e.g. "-₱5.00".
func (f Formatter) Format(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + f.Symbol + d.Neg().StringFixed(2)
	}
	return f.Symbol + d.StringFixed(2)
}

// Format renders d with DefaultSymbol.
func Format(d decimal.Decimal) string {
	return NewFormatter(DefaultSymbol).Format(d)
}
