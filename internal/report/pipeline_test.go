package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/insights"
	"github.com/dvloznov/finance-analytics/internal/jobs"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// MockStore is a mock implementation of store.Store for testing.
type MockStore struct {
	QueryTransactionsByDateRangeFunc func(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Transaction, error)
	ListActiveCategoriesFunc         func(ctx context.Context) ([]domain.Category, error)
	ListAccountsFunc                 func(ctx context.Context, ownerID string) ([]domain.AccountSnapshot, error)
	InsertReportFunc                 func(ctx context.Context, report *domain.Report) error
}

func (m *MockStore) QueryTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Transaction, error) {
	if m.QueryTransactionsByDateRangeFunc != nil {
		return m.QueryTransactionsByDateRangeFunc(ctx, ownerID, start, end)
	}
	return nil, nil
}

func (m *MockStore) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	if m.ListActiveCategoriesFunc != nil {
		return m.ListActiveCategoriesFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) ListAccounts(ctx context.Context, ownerID string) ([]domain.AccountSnapshot, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *MockStore) ListLiabilities(context.Context, string) ([]domain.LiabilitySnapshot, error) {
	return nil, nil
}

func (m *MockStore) ListProperties(context.Context, string) ([]domain.PropertySnapshot, error) {
	return nil, nil
}

func (m *MockStore) ListHoldings(context.Context, string) ([]domain.HoldingSnapshot, error) {
	return nil, nil
}

func (m *MockStore) ConfirmSubscription(context.Context, *domain.Subscription) error { return nil }

func (m *MockStore) ListSubscriptions(context.Context, string) ([]domain.Subscription, error) {
	return nil, nil
}

func (m *MockStore) InsertReport(ctx context.Context, report *domain.Report) error {
	if m.InsertReportFunc != nil {
		return m.InsertReportFunc(ctx, report)
	}
	return nil
}

func (m *MockStore) GetReport(context.Context, string) (*domain.Report, error) {
	return nil, store.ErrNotFound
}

func (m *MockStore) Close() error { return nil }

// MockStorageService is a mock implementation of gcs.StorageService for testing.
type MockStorageService struct {
	UploadFunc func(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

func (m *MockStorageService) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, objectName, contentType, data)
	}
	return "gs://mock-bucket/" + objectName, nil
}

func (m *MockStorageService) FetchFromGCS(context.Context, string) ([]byte, error) {
	return nil, nil
}

// MockNarrator is a mock implementation of insights.Narrator for testing.
type MockNarrator struct {
	NarrateFunc func(ctx context.Context, in insights.Input) (*insights.Narrative, error)
	calls       int
}

func (m *MockNarrator) Narrate(ctx context.Context, in insights.Input) (*insights.Narrative, error) {
	m.calls++
	if m.NarrateFunc != nil {
		return m.NarrateFunc(ctx, in)
	}
	return &insights.Narrative{Headline: "mock headline"}, nil
}

var testNow = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ledger() []domain.Transaction {
	var txs []domain.Transaction
	for m := time.April; m <= time.July; m++ {
		txs = append(txs,
			domain.Transaction{ID: "n" + m.String(), Date: day(2024, m, 1), Amount: decimal.RequireFromString("-15.99"), Description: "NETFLIX.COM", Merchant: "Netflix"},
			domain.Transaction{ID: "s" + m.String(), Date: day(2024, m, 2), Amount: decimal.NewFromInt(3000), Description: "SALARY"},
		)
	}
	return txs
}

func newMockStore(txs []domain.Transaction) *MockStore {
	return &MockStore{
		QueryTransactionsByDateRangeFunc: func(_ context.Context, _ string, start, end time.Time) ([]domain.Transaction, error) {
			var out []domain.Transaction
			for _, tx := range txs {
				if !tx.Date.Before(start) && !tx.Date.After(end) {
					out = append(out, tx)
				}
			}
			return out, nil
		},
		ListAccountsFunc: func(context.Context, string) ([]domain.AccountSnapshot, error) {
			return []domain.AccountSnapshot{{ID: "a1", Name: "Checking", Balance: decimal.NewFromInt(5000)}}, nil
		},
	}
}

func TestGenerate_FullPipeline(t *testing.T) {
	st := newMockStore(ledger())
	var recorded *domain.Report
	st.InsertReportFunc = func(_ context.Context, r *domain.Report) error {
		recorded = r
		return nil
	}

	var uploaded []byte
	var objectName string
	storage := &MockStorageService{
		UploadFunc: func(_ context.Context, name, contentType string, data []byte) (string, error) {
			assert.Equal(t, "application/json", contentType)
			objectName, uploaded = name, data
			return "gs://reports/" + name, nil
		},
	}
	narrator := &MockNarrator{}

	g := NewGenerator(st, analytics.FixedClock(testNow),
		WithStorage(storage),
		WithNarrator(narrator),
		WithDefaults(Defaults{LookbackMonths: 6, CashFlowMonths: 6, Horizon: 3}),
	)

	doc, err := g.Generate(context.Background(), Request{OwnerID: "alice", Narrate: true})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "2024-07-01", doc.Period.Start.String())
	assert.Equal(t, "2024-07-31", doc.Period.End.String())

	require.Len(t, doc.Subscriptions, 1)
	assert.Equal(t, 4, doc.Subscriptions[0].Occurrences)
	assert.Equal(t, 15.99, doc.SubscriptionTotals.MonthlyTotal)

	assert.Equal(t, 3000.0, doc.Summary.TotalIncome)
	assert.Equal(t, 15.99, doc.Summary.TotalExpenses)
	assert.Len(t, doc.CashFlow, 4)
	assert.Len(t, doc.Forecast.Forecast, 3)
	assert.Equal(t, "2024-08", doc.Forecast.Forecast[0].Month)
	assert.Equal(t, 5000.0, doc.Equity.NetWorth)

	require.NotNil(t, doc.Narrative)
	assert.Equal(t, 1, narrator.calls)

	assert.True(t, strings.HasPrefix(objectName, "reports/alice/2024/07/"))
	assert.Equal(t, "gs://reports/"+objectName, doc.URI)

	var archived map[string]interface{}
	require.NoError(t, json.Unmarshal(uploaded, &archived))
	assert.Equal(t, doc.ID, archived["id"])
	assert.Contains(t, archived, "narrative")

	require.NotNil(t, recorded)
	assert.Equal(t, doc.ID, recorded.ID)
	assert.Equal(t, doc.URI, recorded.URI)
	assert.Equal(t, 1, recorded.SubscriptionCount)
	assert.Equal(t, 5000.0, recorded.NetWorth)
	assert.InDelta(t, 2984.01, recorded.PeriodNet, 0.001)
	assert.True(t, recorded.HasNarrative)
}

func TestGenerate_FetchWindowCoversLookback(t *testing.T) {
	var gotStart, gotEnd time.Time
	st := &MockStore{
		QueryTransactionsByDateRangeFunc: func(_ context.Context, _ string, start, end time.Time) ([]domain.Transaction, error) {
			gotStart, gotEnd = start, end
			return nil, nil
		},
	}

	g := NewGenerator(st, analytics.FixedClock(testNow))
	_, err := g.Generate(context.Background(), Request{OwnerID: "alice", LookbackMonths: 12})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, 31, gotEnd.Day())
	assert.Equal(t, time.July, gotEnd.Month())
}

func TestGenerate_SkipsNarrativeUnlessRequested(t *testing.T) {
	narrator := &MockNarrator{}
	g := NewGenerator(newMockStore(ledger()), analytics.FixedClock(testNow), WithNarrator(narrator))

	doc, err := g.Generate(context.Background(), Request{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Nil(t, doc.Narrative)
	assert.Zero(t, narrator.calls)
	assert.Empty(t, doc.URI)
}

func TestGenerate_NarratorFailureIsNotFatal(t *testing.T) {
	narrator := &MockNarrator{
		NarrateFunc: func(context.Context, insights.Input) (*insights.Narrative, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	g := NewGenerator(newMockStore(ledger()), analytics.FixedClock(testNow), WithNarrator(narrator))

	doc, err := g.Generate(context.Background(), Request{OwnerID: "alice", Narrate: true})
	require.NoError(t, err)
	assert.Nil(t, doc.Narrative)
	assert.Equal(t, 1, narrator.calls)
}

func TestGenerate_StepFailures(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		store    func() *MockStore
		storage  *MockStorageService
		wantStep string
	}{
		{
			name:     "invalid period",
			req:      Request{OwnerID: "alice", Start: "2024-13-01"},
			store:    func() *MockStore { return &MockStore{} },
			wantStep: "pipeline step 1 failed",
		},
		{
			name: "transaction query",
			req:  Request{OwnerID: "alice"},
			store: func() *MockStore {
				return &MockStore{
					QueryTransactionsByDateRangeFunc: func(context.Context, string, time.Time, time.Time) ([]domain.Transaction, error) {
						return nil, errors.New("bq unavailable")
					},
				}
			},
			wantStep: "pipeline step 2 failed",
		},
		{
			name: "archive upload",
			req:  Request{OwnerID: "alice"},
			store: func() *MockStore { return &MockStore{} },
			storage: &MockStorageService{
				UploadFunc: func(context.Context, string, string, []byte) (string, error) {
					return "", errors.New("bucket missing")
				},
			},
			wantStep: "pipeline step 11 failed",
		},
		{
			name: "record insert",
			req:  Request{OwnerID: "alice"},
			store: func() *MockStore {
				return &MockStore{
					InsertReportFunc: func(context.Context, *domain.Report) error {
						return errors.New("insert failed")
					},
				}
			},
			wantStep: "pipeline step 11 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{}
			if tt.storage != nil {
				opts = append(opts, WithStorage(tt.storage))
			}
			g := NewGenerator(tt.store(), analytics.FixedClock(testNow), opts...)

			_, err := g.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantStep)
		})
	}
}

func TestGenerate_RequiresOwner(t *testing.T) {
	g := NewGenerator(&MockStore{}, analytics.FixedClock(testNow))
	_, err := g.Generate(context.Background(), Request{})
	assert.True(t, analytics.IsValidationError(err))
}

func TestHandleJob(t *testing.T) {
	g := NewGenerator(newMockStore(ledger()), analytics.FixedClock(testNow), WithStorage(&MockStorageService{}))

	job := &jobs.GenerateReportJob{JobID: "job-1", OwnerID: "alice"}
	require.NoError(t, g.HandleJob(context.Background(), job))

	assert.NotEmpty(t, job.ReportID)
	assert.True(t, strings.HasPrefix(job.ReportURI, "gs://mock-bucket/reports/alice/"))
}

func TestPipeline_StopsAtFirstError(t *testing.T) {
	var ran []int
	step := func(n int, err error) Step {
		return stepFunc(func(context.Context, *State) error {
			ran = append(ran, n)
			return err
		})
	}

	p := NewPipeline(step(1, nil), step(2, errors.New("boom")), step(3, nil))
	err := p.Execute(context.Background(), NewState(Request{}, analytics.FixedClock(testNow), "r1"))

	require.Error(t, err)
	assert.Equal(t, "pipeline step 2 failed: boom", err.Error())
	assert.Equal(t, []int{1, 2}, ran)
}

type stepFunc func(ctx context.Context, state *State) error

func (f stepFunc) Execute(ctx context.Context, state *State) error { return f(ctx, state) }
