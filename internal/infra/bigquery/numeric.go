package bigquery

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	dateFormat = "2006-01-02"
	// NUMERIC columns carry nine fractional digits.
	numericScale = 9
)

// tableRef returns the fully qualified, backquoted name of a table.
func tableRef(project, dataset, table string) string {
	return fmt.Sprintf("`%s.%s.%s`", project, dataset, table)
}

// ratToDecimal converts a NUMERIC value. A NULL column yields zero.
func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.RequireFromString(r.FloatString(numericScale))
}

// ratToDecimalPtr keeps NULL distinct from zero.
func ratToDecimalPtr(r *big.Rat) *decimal.Decimal {
	if r == nil {
		return nil
	}
	d := ratToDecimal(r)
	return &d
}

// decimalToRat converts a decimal for a NUMERIC parameter or column.
func decimalToRat(d decimal.Decimal) *big.Rat {
	r, ok := new(big.Rat).SetString(d.String())
	if !ok {
		return new(big.Rat)
	}
	return r
}
