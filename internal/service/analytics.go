// Package service loads data from a store and runs the analytics engine over
// it. It is shared by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// Analytics answers analytics queries for one owner at a time.
type Analytics struct {
	store store.Store
	clock analytics.Clock
	log   zerolog.Logger
}

// New creates an Analytics service. A nil clock uses the system clock.
func New(st store.Store, clock analytics.Clock, log zerolog.Logger) *Analytics {
	if clock == nil {
		clock = analytics.SystemClock
	}
	return &Analytics{
		store: st,
		clock: clock,
		log:   log.With().Str("component", "analytics_service").Logger(),
	}
}

// SubscriptionsResult is the detection output plus its combined cost.
type SubscriptionsResult struct {
	Subscriptions  []analytics.DetectedSubscription `json:"subscriptions"`
	Totals         analytics.SubscriptionTotals     `json:"totals"`
	LookbackMonths int                              `json:"lookback_months"`
}

// Subscriptions detects recurring charges over the last months months.
func (a *Analytics) Subscriptions(ctx context.Context, ownerID string, months int) (*SubscriptionsResult, error) {
	window := analytics.LookbackWindow(months, a.clock)
	txs, err := a.store.QueryTransactionsByDateRange(ctx, ownerID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("Subscriptions: query transactions: %w", err)
	}

	subs := analytics.DetectSubscriptions(txs, analytics.DetectOptions{LookbackMonths: months, Clock: a.clock})
	a.log.Debug().
		Str("owner_id", ownerID).
		Int("transactions", len(txs)).
		Int("detected", len(subs)).
		Msg("detected subscriptions")

	return &SubscriptionsResult{
		Subscriptions:  subs,
		Totals:         analytics.TotalSubscriptions(subs),
		LookbackMonths: analytics.EffectiveLookbackMonths(months),
	}, nil
}

// Summary aggregates the owner's transactions between start and end. Both
// bounds are optional and default to the current month.
func (a *Analytics) Summary(ctx context.Context, ownerID, start, end string) (*analytics.PeriodSummary, error) {
	r, err := analytics.ParseDateRange(start, end, a.clock)
	if err != nil {
		return nil, err
	}

	txs, err := a.store.QueryTransactionsByDateRange(ctx, ownerID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("Summary: query transactions: %w", err)
	}
	cats, err := a.store.ListActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("Summary: list categories: %w", err)
	}

	summary := analytics.SummarizePeriod(txs, r, analytics.NewCategoryIndex(cats))
	return &summary, nil
}

// CashFlow returns per-month totals for the last months calendar months.
func (a *Analytics) CashFlow(ctx context.Context, ownerID string, months int) ([]analytics.MonthlyBucket, error) {
	window := analytics.CashFlowWindow(months, a.clock)
	txs, err := a.store.QueryTransactionsByDateRange(ctx, ownerID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("CashFlow: query transactions: %w", err)
	}
	return analytics.MonthlyCashFlow(txs, months, a.clock), nil
}

// Forecast projects the next horizon months from recent cash flow.
func (a *Analytics) Forecast(ctx context.Context, ownerID string, horizon int) (*analytics.ForecastResult, error) {
	history, err := a.CashFlow(ctx, ownerID, analytics.ForecastHistoryMonths)
	if err != nil {
		return nil, fmt.Errorf("Forecast: %w", err)
	}
	result := analytics.Forecast(history, horizon, a.clock)
	return &result, nil
}

// Equity computes the owner's current net worth from the latest snapshots.
func (a *Analytics) Equity(ctx context.Context, ownerID string) (*analytics.EquitySnapshot, error) {
	accounts, err := a.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Equity: list accounts: %w", err)
	}
	liabilities, err := a.store.ListLiabilities(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Equity: list liabilities: %w", err)
	}
	properties, err := a.store.ListProperties(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Equity: list properties: %w", err)
	}
	holdings, err := a.store.ListHoldings(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Equity: list holdings: %w", err)
	}

	snapshot := analytics.ComputeEquity(accounts, liabilities, properties, holdings)
	return &snapshot, nil
}

// ConfirmRequest turns a detected subscription into a tracked one.
type ConfirmRequest struct {
	Name            string          `json:"name"`
	NormalizedKey   string          `json:"normalized_key"`
	Amount          decimal.Decimal `json:"amount"`
	Frequency       string          `json:"frequency"`
	CategoryID      int64           `json:"category_id"`
	NextBillingDate string          `json:"next_billing_date"`
}

// ConfirmSubscription validates req and stores it for ownerID. Confirming
// the same normalized key twice updates the existing subscription.
func (a *Analytics) ConfirmSubscription(ctx context.Context, ownerID string, req ConfirmRequest) (*domain.Subscription, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &analytics.ValidationError{Field: "name", Reason: "is required"}
	}
	if !req.Amount.IsPositive() {
		return nil, &analytics.ValidationError{Field: "amount", Value: req.Amount.String(), Reason: "must be positive"}
	}
	freq := analytics.Frequency(strings.ToLower(req.Frequency))
	if !freq.Valid() {
		return nil, &analytics.ValidationError{Field: "frequency", Value: req.Frequency, Reason: "must be weekly, biweekly, monthly or yearly"}
	}

	key := req.NormalizedKey
	if key == "" {
		key = analytics.NormalizeKey("", name)
	}

	now := a.clock.Now()
	next := now
	if req.NextBillingDate != "" {
		t, err := time.ParseInLocation("2006-01-02", req.NextBillingDate, now.Location())
		if err != nil {
			return nil, &analytics.ValidationError{Field: "next_billing_date", Value: req.NextBillingDate, Reason: "must be YYYY-MM-DD"}
		}
		next = t
	}

	sub := &domain.Subscription{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Name:            name,
		NormalizedKey:   key,
		Amount:          req.Amount.Round(2),
		Frequency:       string(freq),
		CategoryID:      req.CategoryID,
		NextBillingDate: next,
		IsActive:        true,
		CreatedAt:       now,
	}
	if err := a.store.ConfirmSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("ConfirmSubscription: %w", err)
	}

	a.log.Info().Str("owner_id", ownerID).Str("normalized_key", key).Msg("subscription confirmed")
	return sub, nil
}

// ListSubscriptions returns the owner's confirmed subscriptions.
func (a *Analytics) ListSubscriptions(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
	subs, err := a.store.ListSubscriptions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListSubscriptions: %w", err)
	}
	return subs, nil
}
