// Package analytics computes subscriptions, period summaries, cash-flow
// forecasts and net-worth figures from already-loaded ledger data.
//
// Every function in this package is pure: no I/O, no shared state. Currency
// values are accumulated as decimals and rounded to cents only when a result
// is emitted.
package analytics

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// cents rounds d half away from zero to two places for output.
func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// safeDiv returns num/den, or zero when den is zero.
func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// percent returns num/den*100 rounded for output, zero-guarded.
func percent(num, den decimal.Decimal) float64 {
	return cents(safeDiv(num, den).Mul(hundred))
}

// flows holds full-precision inflow and outflow totals.
type flows struct {
	income   decimal.Decimal
	expenses decimal.Decimal
	count    int
}

// add books one signed amount. Zero amounts are counted but move no totals.
func (f *flows) add(amount decimal.Decimal) {
	f.count++
	switch {
	case amount.IsPositive():
		f.income = f.income.Add(amount)
	case amount.IsNegative():
		f.expenses = f.expenses.Add(amount.Abs())
	}
}

func (f flows) net() decimal.Decimal {
	return f.income.Sub(f.expenses)
}
