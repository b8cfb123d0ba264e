package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecast_NoHistory(t *testing.T) {
	got := Forecast(nil, 3, FixedClock(day(2024, 6, 1)))

	assert.NotNil(t, got.Forecast)
	assert.Empty(t, got.Forecast)
	assert.Zero(t, got.AvgIncome)
	assert.Zero(t, got.AvgExpenses)
	assert.Equal(t, TrendStable, got.IncomeTrend)
	assert.Equal(t, TrendStable, got.ExpenseTrend)
}

func TestForecast_ShortHistoryHasNoSlope(t *testing.T) {
	history := []MonthlyBucket{
		{Month: "2024-04", Income: 1000, Expenses: 400},
		{Month: "2024-05", Income: 3000, Expenses: 600},
	}

	got := Forecast(history, 2, FixedClock(day(2024, 5, 20)))

	assert.Equal(t, 2000.0, got.AvgIncome)
	assert.Equal(t, 500.0, got.AvgExpenses)
	assert.Zero(t, got.IncomeSlope)
	require.Len(t, got.Forecast, 2)
	assert.Equal(t, ForecastPoint{Month: "2024-06", ProjectedIncome: 2000, ProjectedExpenses: 500, ProjectedNet: 1500}, got.Forecast[0])
	assert.Equal(t, "2024-07", got.Forecast[1].Month)
}

func TestForecast_LinearTrend(t *testing.T) {
	history := []MonthlyBucket{
		{Month: "2024-01", Income: 1000, Expenses: 900},
		{Month: "2024-02", Income: 1100, Expenses: 800},
		{Month: "2024-03", Income: 1200, Expenses: 700},
		{Month: "2024-04", Income: 1300, Expenses: 600},
	}

	got := Forecast(history, 1, FixedClock(day(2024, 4, 30)))

	assert.Equal(t, 1150.0, got.AvgIncome)
	assert.Equal(t, 100.0, got.IncomeSlope)
	assert.Equal(t, -100.0, got.ExpenseSlope)
	assert.Equal(t, TrendIncreasing, got.IncomeTrend)
	assert.Equal(t, TrendDecreasing, got.ExpenseTrend)
	require.Len(t, got.Forecast, 1)
	// avg + slope*(n+1) = 1150 + 100*5
	assert.Equal(t, 1650.0, got.Forecast[0].ProjectedIncome)
	assert.Equal(t, 250.0, got.Forecast[0].ProjectedExpenses)
	assert.Equal(t, 1400.0, got.Forecast[0].ProjectedNet)
}

func TestForecast_TrendUsesUnroundedSlope(t *testing.T) {
	history := []MonthlyBucket{
		{Month: "2024-01", Income: 1000, Expenses: 500},
		{Month: "2024-02", Income: 1050.004, Expenses: 500},
		{Month: "2024-03", Income: 1100.008, Expenses: 500},
	}

	got := Forecast(history, 1, FixedClock(day(2024, 3, 31)))

	assert.Equal(t, 50.0, got.IncomeSlope)
	assert.Equal(t, TrendIncreasing, got.IncomeTrend)
	assert.Equal(t, TrendStable, got.ExpenseTrend)
}

func TestForecast_FloorsAtZero(t *testing.T) {
	history := []MonthlyBucket{
		{Month: "2024-01", Income: 0, Expenses: 900},
		{Month: "2024-02", Income: 0, Expenses: 500},
		{Month: "2024-03", Income: 0, Expenses: 100},
	}

	got := Forecast(history, 3, FixedClock(day(2024, 3, 10)))
	for _, p := range got.Forecast {
		assert.Zero(t, p.ProjectedExpenses)
		assert.GreaterOrEqual(t, p.ProjectedNet, 0.0)
	}
}

func TestForecast_HorizonClamped(t *testing.T) {
	history := []MonthlyBucket{{Month: "2024-01", Income: 10}}
	clock := FixedClock(day(2024, 1, 10))

	assert.Len(t, Forecast(history, 0, clock).Forecast, DefaultForecastHorizon)
	assert.Len(t, Forecast(history, 40, clock).Forecast, MaxForecastHorizon)
}

func TestForecast_UsesLatestSixMonths(t *testing.T) {
	var history []MonthlyBucket
	for i, m := range []string{"2023-12", "2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06", "2024-07"} {
		income := 100.0
		if i < 2 {
			income = 10000
		}
		history = append(history, MonthlyBucket{Month: m, Income: income})
	}

	got := Forecast(history, 1, FixedClock(day(2024, 7, 15)))
	assert.Equal(t, 6, got.HistoryMonths)
	assert.Equal(t, 100.0, got.AvgIncome)
	assert.Equal(t, "2024-08", got.Forecast[0].Month)
}
