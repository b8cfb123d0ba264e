package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func expense(date time.Time, amount, merchant, description string) domain.Transaction {
	return domain.Transaction{
		Date:        date,
		Amount:      dec(amount),
		Merchant:    merchant,
		Description: description,
	}
}
