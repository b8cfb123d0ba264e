package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// Frequency is the billing cadence assigned to a recurring payment.
type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

const (
	DefaultLookbackMonths = 6
	MaxLookbackMonths     = 24

	minKeyLength  = 3
	maxNameLength = 50
)

// maxAmountSpread is the largest (max-min)/avg a group may show.
var maxAmountSpread = decimal.RequireFromString("0.10")

// frequencyBands are inclusive day ranges checked in order. Intervals that
// fall between bands are not classified.
var frequencyBands = []struct {
	freq     Frequency
	min, max float64
}{
	{Weekly, 6, 8},
	{Biweekly, 12, 16},
	{Monthly, 25, 35},
	{Yearly, 350, 380},
}

// monthlyFactor converts one charge of each frequency into a monthly cost.
var monthlyFactor = map[Frequency]decimal.Decimal{
	Weekly:   decimal.NewFromInt(52).Div(decimal.NewFromInt(12)),
	Biweekly: decimal.NewFromInt(26).Div(decimal.NewFromInt(12)),
	Monthly:  decimal.NewFromInt(1),
	Yearly:   decimal.NewFromInt(1).Div(decimal.NewFromInt(12)),
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	_, ok := monthlyFactor[f]
	return ok
}

// ClassifyInterval maps an average gap in days to a frequency.
func ClassifyInterval(avgDays float64) (Frequency, bool) {
	for _, b := range frequencyBands {
		if avgDays >= b.min && avgDays <= b.max {
			return b.freq, true
		}
	}
	return "", false
}

// DetectOptions bounds a detection run.
type DetectOptions struct {
	// LookbackMonths limits input to transactions dated on or after
	// Clock.Now() minus this many months. Zero means DefaultLookbackMonths.
	LookbackMonths int
	// Clock anchors the lookback window. A nil Clock disables the window
	// and every expense in the input is considered.
	Clock Clock
}

func (o DetectOptions) cutoff() (civil.Date, bool) {
	if o.Clock == nil {
		return civil.Date{}, false
	}
	return civil.DateOf(LookbackWindow(o.LookbackMonths, o.Clock).Start), true
}

// EffectiveLookbackMonths applies the default and the upper bound to months.
func EffectiveLookbackMonths(months int) int {
	return clampMonths(months, DefaultLookbackMonths, MaxLookbackMonths)
}

// LookbackWindow is the span a detection run with the same months and clock
// considers. It starts at midnight on the same day months earlier, clamped to
// the end of a shorter month, and ends with the current day.
func LookbackWindow(months int, clock Clock) DateRange {
	months = EffectiveLookbackMonths(months)
	now := clock.Now()
	return DateRange{
		Start: addMonthsClamped(civil.DateOf(now), -months).In(now.Location()),
		End:   endOfDay(now),
	}
}

// DetectedSubscription is a recurring charge inferred from history.
type DetectedSubscription struct {
	Name              string     `json:"name"`
	NormalizedKey     string     `json:"normalized_key"`
	Amount            float64    `json:"amount"`
	Frequency         Frequency  `json:"frequency"`
	Occurrences       int        `json:"occurrences"`
	LastDate          civil.Date `json:"last_date"`
	NextExpectedDate  civil.Date `json:"next_expected_date"`
	MonthlyCost       float64    `json:"monthly_cost"`
	SampleDescription string     `json:"sample_description"`
}

// recurrenceGroup is the set of expenses sharing a normalized key.
type recurrenceGroup struct {
	key string
	txs []domain.Transaction
}

// DetectSubscriptions finds recurring charges among the expenses in txs.
// The result is never nil and is ordered by amount descending, then name.
func DetectSubscriptions(txs []domain.Transaction, opts DetectOptions) []DetectedSubscription {
	groups := groupByKey(selectExpenses(txs, opts))

	out := make([]DetectedSubscription, 0, len(groups))
	for _, g := range groups {
		if sub, ok := classifyGroup(g); ok {
			out = append(out, sub)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].NormalizedKey < out[j].NormalizedKey
	})
	return out
}

// selectExpenses keeps outflows that fall inside the lookback window.
func selectExpenses(txs []domain.Transaction, opts DetectOptions) []domain.Transaction {
	cutoff, windowed := opts.cutoff()
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		if windowed && civil.DateOf(tx.Date).Before(cutoff) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// groupByKey clusters transactions by normalized key, preserving the order
// in which keys were first seen. Short keys and singletons are dropped.
func groupByKey(txs []domain.Transaction) []recurrenceGroup {
	index := make(map[string]int)
	var groups []recurrenceGroup
	for _, tx := range txs {
		key := NormalizeKey(tx.Merchant, tx.Description)
		if len(key) < minKeyLength {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, recurrenceGroup{key: key})
		}
		groups[i].txs = append(groups[i].txs, tx)
	}

	kept := groups[:0]
	for _, g := range groups {
		if len(g.txs) >= 2 {
			kept = append(kept, g)
		}
	}
	return kept
}

// classifyGroup applies the amount and interval checks to one group.
func classifyGroup(g recurrenceGroup) (DetectedSubscription, bool) {
	avg, ok := stableAmount(g.txs)
	if !ok {
		return DetectedSubscription{}, false
	}

	sorted := make([]domain.Transaction, len(g.txs))
	copy(sorted, g.txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	gaps := dayGaps(sorted)
	if len(gaps) == 0 {
		return DetectedSubscription{}, false
	}
	freq, ok := ClassifyInterval(stat.Mean(gaps, nil))
	if !ok {
		return DetectedSubscription{}, false
	}

	latest := sorted[len(sorted)-1]
	name := strings.TrimSpace(latest.Merchant)
	if name == "" {
		name = truncateRunes(latest.Description, maxNameLength)
	}

	return DetectedSubscription{
		Name:              name,
		NormalizedKey:     g.key,
		Amount:            cents(avg),
		Frequency:         freq,
		Occurrences:       len(g.txs),
		LastDate:          civil.DateOf(latest.Date),
		NextExpectedDate:  NextOccurrence(civil.DateOf(latest.Date), freq),
		MonthlyCost:       cents(avg.Mul(monthlyFactor[freq])),
		SampleDescription: latest.Description,
	}, true
}

// stableAmount returns the mean magnitude of the group when the spread
// between the largest and smallest charge is within maxAmountSpread.
func stableAmount(txs []domain.Transaction) (decimal.Decimal, bool) {
	var sum, lo, hi decimal.Decimal
	for i, tx := range txs {
		abs := tx.Amount.Abs()
		sum = sum.Add(abs)
		if i == 0 || abs.LessThan(lo) {
			lo = abs
		}
		if i == 0 || abs.GreaterThan(hi) {
			hi = abs
		}
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(txs))))
	if avg.IsZero() {
		return decimal.Zero, false
	}
	if hi.Sub(lo).Div(avg).GreaterThan(maxAmountSpread) {
		return decimal.Zero, false
	}
	return avg, true
}

// dayGaps returns the whole-day distance between consecutive dates.
func dayGaps(sorted []domain.Transaction) []float64 {
	if len(sorted) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		hours := sorted[i].Date.Sub(sorted[i-1].Date).Hours()
		gaps = append(gaps, math.Round(hours/24))
	}
	return gaps
}

// NextOccurrence projects the next charge date after last.
func NextOccurrence(last civil.Date, freq Frequency) civil.Date {
	switch freq {
	case Weekly:
		return last.AddDays(7)
	case Biweekly:
		return last.AddDays(14)
	case Monthly:
		return addMonthsClamped(last, 1)
	case Yearly:
		return addMonthsClamped(last, 12)
	}
	return last
}

// addMonthsClamped moves d by n months, pinning the day to the end of the
// target month so Jan 31 becomes Feb 28 rather than Mar 3.
func addMonthsClamped(d civil.Date, n int) civil.Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := d.Day
	if day > lastDay {
		day = lastDay
	}
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// SubscriptionTotals is the combined cost of a set of subscriptions.
type SubscriptionTotals struct {
	Count        int     `json:"count"`
	MonthlyTotal float64 `json:"monthly_total"`
	YearlyTotal  float64 `json:"yearly_total"`
}

// TotalSubscriptions sums the monthly cost of subs.
func TotalSubscriptions(subs []DetectedSubscription) SubscriptionTotals {
	monthly := decimal.Zero
	for _, s := range subs {
		factor, ok := monthlyFactor[s.Frequency]
		if !ok {
			continue
		}
		monthly = monthly.Add(decimal.NewFromFloat(s.Amount).Mul(factor))
	}
	return SubscriptionTotals{
		Count:        len(subs),
		MonthlyTotal: cents(monthly),
		YearlyTotal:  cents(monthly.Mul(decimal.NewFromInt(12))),
	}
}
