package analytics

import (
	"sort"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

const monthLayout = "2006-01"

// MonthlyBucket aggregates the transactions of one calendar month.
type MonthlyBucket struct {
	Month            string  `json:"month"`
	Income           float64 `json:"income"`
	Expenses         float64 `json:"expenses"`
	Net              float64 `json:"net"`
	TransactionCount int     `json:"transaction_count"`
}

// CashFlowWindow returns the range covering the given number of calendar
// months ending with the current one.
func CashFlowWindow(months int, clock Clock) DateRange {
	months = clampMonths(months, DefaultLookbackMonths, MaxLookbackMonths)
	current := monthStart(clock.Now())
	return DateRange{
		Start: current.AddDate(0, -(months - 1), 0),
		End:   endOfDay(current.AddDate(0, 1, -1)),
	}
}

// MonthlyCashFlow buckets the transactions inside CashFlowWindow by month.
func MonthlyCashFlow(txs []domain.Transaction, months int, clock Clock) []MonthlyBucket {
	window := CashFlowWindow(months, clock)

	inWindow := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if window.Contains(tx.Date) {
			inWindow = append(inWindow, tx)
		}
	}
	return GroupByMonth(inWindow)
}

// GroupByMonth buckets txs by the YYYY-MM of their calendar date, read in
// the location each date carries. Only months with at least one transaction
// appear.
func GroupByMonth(txs []domain.Transaction) []MonthlyBucket {
	accs := make(map[string]*flows)
	for _, tx := range txs {
		key := tx.Date.Format(monthLayout)
		acc, ok := accs[key]
		if !ok {
			acc = &flows{}
			accs[key] = acc
		}
		acc.add(tx.Amount)
	}

	keys := make([]string, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthlyBucket, 0, len(keys))
	for _, k := range keys {
		acc := accs[k]
		out = append(out, MonthlyBucket{
			Month:            k,
			Income:           cents(acc.income),
			Expenses:         cents(acc.expenses),
			Net:              cents(acc.net()),
			TransactionCount: acc.count,
		})
	}
	return out
}
