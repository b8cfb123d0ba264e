// Package render formats analytics results as Markdown for terminals and
// notes.
package render

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency code is given.
const DefaultCurrency = "USD"

// Money formats an amount in the given ISO currency, e.g. "$1,234.50".
// Unknown codes fall back to the bare amount followed by the code.
func Money(amount float64, code string) string {
	code = strings.ToUpper(code)
	if code == "" {
		code = DefaultCurrency
	}

	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%s %s", decimal.NewFromFloat(amount).StringFixed(2), code)
	}

	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

// Percent formats a percentage with one decimal place.
func Percent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(1) + "%"
}
