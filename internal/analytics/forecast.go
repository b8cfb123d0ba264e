package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultForecastHorizon = 3
	MaxForecastHorizon     = 12

	// ForecastHistoryMonths is how many trailing monthly buckets feed a forecast.
	ForecastHistoryMonths = 6

	minTrendMonths = 3
	trendThreshold = 50.0
)

// Trend labels the direction of a monthly series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

func trendOf(slope float64) Trend {
	switch {
	case slope > trendThreshold:
		return TrendIncreasing
	case slope < -trendThreshold:
		return TrendDecreasing
	}
	return TrendStable
}

// ForecastPoint is the projection for one future month.
type ForecastPoint struct {
	Month             string  `json:"month"`
	ProjectedIncome   float64 `json:"projected_income"`
	ProjectedExpenses float64 `json:"projected_expenses"`
	ProjectedNet      float64 `json:"projected_net"`
}

// ForecastResult is a horizon of projections plus the statistics behind it.
// IncomeSlope and ExpenseSlope are rounded to cents for display; the trend
// labels are decided on the unrounded slopes.
type ForecastResult struct {
	Forecast      []ForecastPoint `json:"forecast"`
	AvgIncome     float64         `json:"avg_income"`
	AvgExpenses   float64         `json:"avg_expenses"`
	IncomeTrend   Trend           `json:"income_trend"`
	ExpenseTrend  Trend           `json:"expense_trend"`
	IncomeSlope   float64         `json:"income_slope"`
	ExpenseSlope  float64         `json:"expense_slope"`
	HistoryMonths int             `json:"history_months"`
}

// series is the fitted line for one monthly sequence.
type series struct {
	avg   float64
	slope float64
}

func fit(ys []float64) series {
	s := series{avg: stat.Mean(ys, nil)}
	if len(ys) < minTrendMonths {
		return s
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, s.slope = stat.LinearRegression(xs, ys, nil, false)
	return s
}

// project extrapolates step positions past the end of the history.
func (s series) project(position int) decimal.Decimal {
	v := math.Max(0, s.avg+s.slope*float64(position))
	return decimal.NewFromFloat(v).Round(2)
}

// Forecast projects income and expenses for the horizon months that follow
// the current month of clock. Only the latest six buckets of history are
// used. Horizon is clamped to [1, MaxForecastHorizon], zero meaning the
// default.
func Forecast(history []MonthlyBucket, horizon int, clock Clock) ForecastResult {
	horizon = clampMonths(horizon, DefaultForecastHorizon, MaxForecastHorizon)

	hist := make([]MonthlyBucket, len(history))
	copy(hist, history)
	sort.SliceStable(hist, func(i, j int) bool { return hist[i].Month < hist[j].Month })
	if len(hist) > ForecastHistoryMonths {
		hist = hist[len(hist)-ForecastHistoryMonths:]
	}

	result := ForecastResult{
		Forecast:      []ForecastPoint{},
		IncomeTrend:   TrendStable,
		ExpenseTrend:  TrendStable,
		HistoryMonths: len(hist),
	}
	if len(hist) == 0 {
		return result
	}

	incomes := make([]float64, len(hist))
	expenses := make([]float64, len(hist))
	for i, b := range hist {
		incomes[i] = b.Income
		expenses[i] = b.Expenses
	}
	inc, exp := fit(incomes), fit(expenses)

	result.AvgIncome = cents(decimal.NewFromFloat(inc.avg))
	result.AvgExpenses = cents(decimal.NewFromFloat(exp.avg))
	result.IncomeSlope = cents(decimal.NewFromFloat(inc.slope))
	result.ExpenseSlope = cents(decimal.NewFromFloat(exp.slope))
	result.IncomeTrend = trendOf(inc.slope)
	result.ExpenseTrend = trendOf(exp.slope)

	current := monthStart(clock.Now())
	n := len(hist)
	for i := 1; i <= horizon; i++ {
		pi, pe := inc.project(n+i), exp.project(n+i)
		result.Forecast = append(result.Forecast, ForecastPoint{
			Month:             current.AddDate(0, i, 0).Format(monthLayout),
			ProjectedIncome:   pi.InexactFloat64(),
			ProjectedExpenses: pe.InexactFloat64(),
			ProjectedNet:      pi.Sub(pe).InexactFloat64(),
		})
	}
	return result
}
