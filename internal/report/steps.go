package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/gcs"
	"github.com/dvloznov/finance-analytics/internal/gcsuploader"
	"github.com/dvloznov/finance-analytics/internal/insights"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// Step represents a single step in the report pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// ResolvePeriodStep parses the requested period.
type ResolvePeriodStep struct{}

func (s *ResolvePeriodStep) Execute(ctx context.Context, state *State) error {
	r, err := analytics.ParseDateRange(state.Request.Start, state.Request.End, state.Clock)
	if err != nil {
		return err
	}
	state.Range = r
	state.Document.Period = periodOf(r)
	return nil
}

// LoadTransactionsStep fetches every transaction later steps need.
type LoadTransactionsStep struct {
	Repo store.TransactionRepository
}

func (s *LoadTransactionsStep) Execute(ctx context.Context, state *State) error {
	w := state.fetchWindow()
	txs, err := s.Repo.QueryTransactionsByDateRange(ctx, state.Request.OwnerID, w.Start, w.End)
	if err != nil {
		return fmt.Errorf("LoadTransactionsStep: %w", err)
	}
	state.Transactions = txs
	return nil
}

// LoadCategoriesStep fetches category metadata.
type LoadCategoriesStep struct {
	Repo store.CategoryRepository
}

func (s *LoadCategoriesStep) Execute(ctx context.Context, state *State) error {
	cats, err := s.Repo.ListActiveCategories(ctx)
	if err != nil {
		return fmt.Errorf("LoadCategoriesStep: %w", err)
	}
	state.Categories = cats
	return nil
}

// LoadSnapshotsStep fetches the latest balances and valuations.
type LoadSnapshotsStep struct {
	Repo store.SnapshotRepository
}

func (s *LoadSnapshotsStep) Execute(ctx context.Context, state *State) error {
	owner := state.Request.OwnerID
	var err error
	if state.Accounts, err = s.Repo.ListAccounts(ctx, owner); err != nil {
		return fmt.Errorf("LoadSnapshotsStep: accounts: %w", err)
	}
	if state.Liabilities, err = s.Repo.ListLiabilities(ctx, owner); err != nil {
		return fmt.Errorf("LoadSnapshotsStep: liabilities: %w", err)
	}
	if state.Properties, err = s.Repo.ListProperties(ctx, owner); err != nil {
		return fmt.Errorf("LoadSnapshotsStep: properties: %w", err)
	}
	if state.Holdings, err = s.Repo.ListHoldings(ctx, owner); err != nil {
		return fmt.Errorf("LoadSnapshotsStep: holdings: %w", err)
	}
	return nil
}

// DetectSubscriptionsStep finds recurring charges in the lookback window.
type DetectSubscriptionsStep struct{}

func (s *DetectSubscriptionsStep) Execute(ctx context.Context, state *State) error {
	subs := analytics.DetectSubscriptions(state.Transactions, analytics.DetectOptions{
		LookbackMonths: state.Request.LookbackMonths,
		Clock:          state.Clock,
	})
	state.Document.Subscriptions = subs
	state.Document.SubscriptionTotals = analytics.TotalSubscriptions(subs)
	return nil
}

// SummarizePeriodStep aggregates the requested period by category.
type SummarizePeriodStep struct{}

func (s *SummarizePeriodStep) Execute(ctx context.Context, state *State) error {
	cats := analytics.NewCategoryIndex(state.Categories)
	state.Document.Summary = analytics.SummarizePeriod(state.Transactions, state.Range, cats)
	return nil
}

// CashFlowStep buckets recent months.
type CashFlowStep struct{}

func (s *CashFlowStep) Execute(ctx context.Context, state *State) error {
	state.Document.CashFlow = analytics.MonthlyCashFlow(state.Transactions, state.Request.CashFlowMonths, state.Clock)
	return nil
}

// ForecastStep projects the coming months from the forecast history.
type ForecastStep struct{}

func (s *ForecastStep) Execute(ctx context.Context, state *State) error {
	history := analytics.MonthlyCashFlow(state.Transactions, analytics.ForecastHistoryMonths, state.Clock)
	state.Document.Forecast = analytics.Forecast(history, state.Request.Horizon, state.Clock)
	return nil
}

// EquityStep computes net worth from the loaded snapshots.
type EquityStep struct{}

func (s *EquityStep) Execute(ctx context.Context, state *State) error {
	state.Document.Equity = analytics.ComputeEquity(state.Accounts, state.Liabilities, state.Properties, state.Holdings)
	return nil
}

// NarrateStep asks the narrator for commentary when the request wants one.
// A narrator failure is logged and the report carries on without it.
type NarrateStep struct {
	Narrator insights.Narrator
}

func (s *NarrateStep) Execute(ctx context.Context, state *State) error {
	if !state.Request.Narrate || s.Narrator == nil {
		return nil
	}

	doc := state.Document
	n, err := s.Narrator.Narrate(ctx, insights.Input{
		Period:             doc.Summary,
		Subscriptions:      doc.Subscriptions,
		SubscriptionTotals: doc.SubscriptionTotals,
		CashFlow:           doc.CashFlow,
		Forecast:           doc.Forecast,
		Equity:             doc.Equity,
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("report_id", doc.ID).Msg("narrative generation failed")
		return nil
	}
	doc.Narrative = n
	return nil
}

// ArchiveStep uploads the report document as JSON.
type ArchiveStep struct {
	Storage gcs.StorageService
}

func (s *ArchiveStep) Execute(ctx context.Context, state *State) error {
	doc := state.Document
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("ArchiveStep: marshal report: %w", err)
	}

	objectName := gcsuploader.ReportObjectName(doc.OwnerID, doc.ID, doc.GeneratedAt)
	uri, err := s.Storage.Upload(ctx, objectName, "application/json", data)
	if err != nil {
		return fmt.Errorf("ArchiveStep: %w", err)
	}
	doc.URI = uri
	return nil
}

// RecordStep stores the report metadata.
type RecordStep struct {
	Repo store.ReportRepository
}

func (s *RecordStep) Execute(ctx context.Context, state *State) error {
	doc := state.Document
	rec := &domain.Report{
		ID:                doc.ID,
		OwnerID:           doc.OwnerID,
		GeneratedAt:       doc.GeneratedAt,
		PeriodStart:       state.Range.Start,
		PeriodEnd:         state.Range.End,
		URI:               doc.URI,
		NetWorth:          doc.Equity.NetWorth,
		PeriodNet:         doc.Summary.Net,
		SubscriptionCount: len(doc.Subscriptions),
		HasNarrative:      doc.Narrative != nil,
	}
	if err := s.Repo.InsertReport(ctx, rec); err != nil {
		return fmt.Errorf("RecordStep: %w", err)
	}
	state.Record = rec
	return nil
}
