package analytics

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

const (
	UncategorizedID   int64 = 0
	UncategorizedName       = "Uncategorized"
	UnknownCategory         = "Unknown"

	dateLayout = "2006-01-02"
)

// DateRange is an inclusive time interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t lies within the calendar
// dates of r, bounds included. Transaction dates are calendar dates, so the
// time of day and location of t are not compared.
func (r DateRange) Contains(t time.Time) bool {
	d := civil.DateOf(t)
	return !d.Before(civil.DateOf(r.Start)) && !d.After(civil.DateOf(r.End))
}

// CurrentMonthRange spans the calendar month of clock.Now() in its location.
func CurrentMonthRange(clock Clock) DateRange {
	start := monthStart(clock.Now())
	return DateRange{
		Start: start,
		End:   endOfDay(start.AddDate(0, 1, -1)),
	}
}

// ParseDateRange turns optional start and end strings into a range. Each
// bound is either YYYY-MM-DD or RFC 3339. A date-only end covers the whole
// day. Missing bounds default to the current month.
func ParseDateRange(start, end string, clock Clock) (DateRange, error) {
	r := CurrentMonthRange(clock)
	loc := clock.Now().Location()

	if start != "" {
		t, err := parseBound("start", start, loc, false)
		if err != nil {
			return DateRange{}, err
		}
		r.Start = t
	}
	if end != "" {
		t, err := parseBound("end", end, loc, true)
		if err != nil {
			return DateRange{}, err
		}
		r.End = t
	}

	if r.Start.After(r.End) {
		return DateRange{}, &ValidationError{
			Field:  "range",
			Value:  start + ".." + end,
			Reason: "start is after end",
		}
	}
	return r, nil
}

func parseBound(field, s string, loc *time.Location, isEnd bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		if isEnd {
			return endOfDay(t), nil
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, &ValidationError{
		Field:  field,
		Value:  s,
		Reason: "expected YYYY-MM-DD or RFC 3339 timestamp",
	}
}

// CategoryIndex resolves category ids to display metadata.
type CategoryIndex map[int64]domain.Category

// NewCategoryIndex indexes cats by id.
func NewCategoryIndex(cats []domain.Category) CategoryIndex {
	idx := make(CategoryIndex, len(cats))
	for _, c := range cats {
		idx[c.ID] = c
	}
	return idx
}

// Period is the calendar span a summary covers.
type Period struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// CategoryBucket aggregates the transactions of one category.
type CategoryBucket struct {
	CategoryID        int64   `json:"category_id"`
	Name              string  `json:"name"`
	Icon              string  `json:"icon,omitempty"`
	Color             string  `json:"color,omitempty"`
	IsIncome          bool    `json:"is_income"`
	BudgetLimit       float64 `json:"budget_limit"`
	Income            float64 `json:"income"`
	Expenses          float64 `json:"expenses"`
	Net               float64 `json:"net"`
	TransactionCount  int     `json:"transaction_count"`
	BudgetUsedPercent float64 `json:"budget_used_percent"`
}

// PeriodSummary is the income and spending picture over a date range.
type PeriodSummary struct {
	Period           Period           `json:"period"`
	TotalIncome      float64          `json:"total_income"`
	TotalExpenses    float64          `json:"total_expenses"`
	Net              float64          `json:"net"`
	SavingsRate      float64          `json:"savings_rate"`
	TransactionCount int              `json:"transaction_count"`
	ByCategory       []CategoryBucket `json:"by_category"`
}

type categoryAcc struct {
	id int64
	flows
}

// SummarizePeriod totals the transactions of txs that fall within r.
func SummarizePeriod(txs []domain.Transaction, r DateRange, cats CategoryIndex) PeriodSummary {
	var total flows
	var named []*categoryAcc
	byID := make(map[int64]*categoryAcc)
	uncategorized := &categoryAcc{id: UncategorizedID}

	for _, tx := range txs {
		if !r.Contains(tx.Date) {
			continue
		}
		total.add(tx.Amount)

		if tx.CategoryID == UncategorizedID {
			uncategorized.add(tx.Amount)
			continue
		}
		acc, ok := byID[tx.CategoryID]
		if !ok {
			acc = &categoryAcc{id: tx.CategoryID}
			byID[tx.CategoryID] = acc
			named = append(named, acc)
		}
		acc.add(tx.Amount)
	}

	sort.SliceStable(named, func(i, j int) bool {
		return named[i].expenses.GreaterThan(named[j].expenses)
	})

	buckets := make([]CategoryBucket, 0, len(named)+1)
	for _, acc := range named {
		buckets = append(buckets, categoryBucket(acc, cats))
	}
	if uncategorized.count > 0 {
		buckets = append(buckets, categoryBucket(uncategorized, cats))
	}

	return PeriodSummary{
		Period:           Period{Start: civil.DateOf(r.Start), End: civil.DateOf(r.End)},
		TotalIncome:      cents(total.income),
		TotalExpenses:    cents(total.expenses),
		Net:              cents(total.net()),
		SavingsRate:      percent(total.net(), total.income),
		TransactionCount: total.count,
		ByCategory:       buckets,
	}
}

func categoryBucket(acc *categoryAcc, cats CategoryIndex) CategoryBucket {
	b := CategoryBucket{
		CategoryID:       acc.id,
		Income:           cents(acc.income),
		Expenses:         cents(acc.expenses),
		Net:              cents(acc.net()),
		TransactionCount: acc.count,
	}
	if acc.id == UncategorizedID {
		b.Name = UncategorizedName
		return b
	}

	c, ok := cats[acc.id]
	if !ok {
		b.Name = UnknownCategory
		return b
	}
	b.Name = c.Name
	b.Icon = c.Icon
	b.Color = c.Color
	b.IsIncome = c.IsIncome
	b.BudgetLimit = cents(c.BudgetLimit)
	if c.BudgetLimit.GreaterThan(decimal.Zero) {
		b.BudgetUsedPercent = percent(acc.expenses, c.BudgetLimit)
	}
	return b
}
