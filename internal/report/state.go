// Package report assembles a full analytics report for one owner as an
// ordered pipeline of steps, then archives and records it.
package report

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/insights"
)

// Request selects the owner and windows of a report. Zero values fall back
// to the generator defaults.
type Request struct {
	OwnerID        string
	Start          string // YYYY-MM-DD or RFC 3339, empty for the current month
	End            string
	LookbackMonths int
	CashFlowMonths int
	Horizon        int
	Narrate        bool
}

// Document is the archived report body.
type Document struct {
	ID                 string                           `json:"id"`
	OwnerID            string                           `json:"owner_id"`
	GeneratedAt        time.Time                        `json:"generated_at"`
	Period             analytics.Period                 `json:"period"`
	Summary            analytics.PeriodSummary          `json:"summary"`
	Subscriptions      []analytics.DetectedSubscription `json:"subscriptions"`
	SubscriptionTotals analytics.SubscriptionTotals     `json:"subscription_totals"`
	CashFlow           []analytics.MonthlyBucket        `json:"cash_flow"`
	Forecast           analytics.ForecastResult         `json:"forecast"`
	Equity             analytics.EquitySnapshot         `json:"equity"`
	Narrative          *insights.Narrative              `json:"narrative,omitempty"`
	URI                string                           `json:"-"`
}

// State holds the shared state across all report steps.
type State struct {
	Request Request
	Clock   analytics.Clock

	Range        analytics.DateRange
	Transactions []domain.Transaction
	Categories   []domain.Category
	Accounts     []domain.AccountSnapshot
	Liabilities  []domain.LiabilitySnapshot
	Properties   []domain.PropertySnapshot
	Holdings     []domain.HoldingSnapshot

	Document *Document
	Record   *domain.Report
}

// NewState prepares the state of a run. The document id and timestamp are
// fixed here so every step sees the same values.
func NewState(req Request, clock analytics.Clock, reportID string) *State {
	return &State{
		Request: req,
		Clock:   clock,
		Document: &Document{
			ID:          reportID,
			OwnerID:     req.OwnerID,
			GeneratedAt: clock.Now(),
		},
	}
}

// fetchWindow covers the summarized period, the subscription lookback, the
// cash-flow months and the forecast history in one query.
func (s *State) fetchWindow() analytics.DateRange {
	w := s.Range
	for _, r := range []analytics.DateRange{
		analytics.LookbackWindow(s.Request.LookbackMonths, s.Clock),
		analytics.CashFlowWindow(s.Request.CashFlowMonths, s.Clock),
		analytics.CashFlowWindow(analytics.ForecastHistoryMonths, s.Clock),
	} {
		if r.Start.Before(w.Start) {
			w.Start = r.Start
		}
		if r.End.After(w.End) {
			w.End = r.End
		}
	}
	return w
}

func periodOf(r analytics.DateRange) analytics.Period {
	return analytics.Period{Start: civil.DateOf(r.Start), End: civil.DateOf(r.End)}
}
