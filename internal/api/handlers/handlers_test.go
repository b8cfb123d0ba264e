package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/api/middleware"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/jobs"
	"github.com/dvloznov/finance-analytics/internal/jobs/inmemory"
	"github.com/dvloznov/finance-analytics/internal/service"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// MockAnalytics is a mock implementation of AnalyticsService.
type MockAnalytics struct {
	SubscriptionsFunc       func(ctx context.Context, ownerID string, months int) (*service.SubscriptionsResult, error)
	ListSubscriptionsFunc   func(ctx context.Context, ownerID string) ([]domain.Subscription, error)
	ConfirmSubscriptionFunc func(ctx context.Context, ownerID string, req service.ConfirmRequest) (*domain.Subscription, error)
	SummaryFunc             func(ctx context.Context, ownerID, start, end string) (*analytics.PeriodSummary, error)
	CashFlowFunc            func(ctx context.Context, ownerID string, months int) ([]analytics.MonthlyBucket, error)
	ForecastFunc            func(ctx context.Context, ownerID string, horizon int) (*analytics.ForecastResult, error)
	EquityFunc              func(ctx context.Context, ownerID string) (*analytics.EquitySnapshot, error)
}

func (m *MockAnalytics) Subscriptions(ctx context.Context, ownerID string, months int) (*service.SubscriptionsResult, error) {
	return m.SubscriptionsFunc(ctx, ownerID, months)
}

func (m *MockAnalytics) ListSubscriptions(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
	return m.ListSubscriptionsFunc(ctx, ownerID)
}

func (m *MockAnalytics) ConfirmSubscription(ctx context.Context, ownerID string, req service.ConfirmRequest) (*domain.Subscription, error) {
	return m.ConfirmSubscriptionFunc(ctx, ownerID, req)
}

func (m *MockAnalytics) Summary(ctx context.Context, ownerID, start, end string) (*analytics.PeriodSummary, error) {
	return m.SummaryFunc(ctx, ownerID, start, end)
}

func (m *MockAnalytics) CashFlow(ctx context.Context, ownerID string, months int) ([]analytics.MonthlyBucket, error) {
	return m.CashFlowFunc(ctx, ownerID, months)
}

func (m *MockAnalytics) Forecast(ctx context.Context, ownerID string, horizon int) (*analytics.ForecastResult, error) {
	return m.ForecastFunc(ctx, ownerID, horizon)
}

func (m *MockAnalytics) Equity(ctx context.Context, ownerID string) (*analytics.EquitySnapshot, error) {
	return m.EquityFunc(ctx, ownerID)
}

// MockReports is a mock implementation of store.ReportRepository.
type MockReports struct {
	GetReportFunc func(ctx context.Context, id string) (*domain.Report, error)
}

func (m *MockReports) InsertReport(ctx context.Context, report *domain.Report) error { return nil }

func (m *MockReports) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	return m.GetReportFunc(ctx, id)
}

func serve(t *testing.T, register func(chi.Router), method, target, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api", register)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(middleware.OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAnalyticsHandler_Subscriptions(t *testing.T) {
	var gotOwner string
	var gotMonths int
	svc := &MockAnalytics{
		SubscriptionsFunc: func(ctx context.Context, ownerID string, months int) (*service.SubscriptionsResult, error) {
			gotOwner, gotMonths = ownerID, months
			return &service.SubscriptionsResult{
				Subscriptions:  []analytics.DetectedSubscription{{Name: "Netflix", Amount: 15.99, Frequency: analytics.Monthly}},
				Totals:         analytics.SubscriptionTotals{Count: 1, MonthlyTotal: 15.99, YearlyTotal: 191.88},
				LookbackMonths: 12,
			}, nil
		},
	}
	h := NewAnalyticsHandler(svc, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/analytics/subscriptions?months=12", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", gotOwner)
	assert.Equal(t, 12, gotMonths)

	body := decode(t, rec)
	assert.Equal(t, float64(12), body["lookback_months"])
	totals := body["totals"].(map[string]interface{})
	assert.Equal(t, 191.88, totals["yearly_total"])
}

func TestAnalyticsHandler_BadRequests(t *testing.T) {
	h := NewAnalyticsHandler(&MockAnalytics{}, zerolog.Nop())

	tests := []struct {
		name   string
		method string
		target string
		owner  string
		body   string
		want   string
	}{
		{"missing owner", http.MethodGet, "/api/analytics/equity", "", "", "X-Owner-ID header is required"},
		{"non-integer months", http.MethodGet, "/api/analytics/subscriptions?months=six", "alice", "", `invalid months "six"`},
		{"negative months", http.MethodGet, "/api/analytics/cash-flow?months=-1", "alice", "", `invalid months "-1"`},
		{"bad horizon", http.MethodGet, "/api/analytics/forecast?months=1.5", "alice", "", `invalid months "1.5"`},
		{"bad body", http.MethodPost, "/api/analytics/subscriptions/confirm", "alice", "{", "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h.RegisterRoutes, tt.method, tt.target, tt.owner, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.want)
		})
	}
}

func TestAnalyticsHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &analytics.ValidationError{Field: "start", Value: "x", Reason: "must be a date"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("Summary: %w", &analytics.ValidationError{Field: "end", Reason: "before start"}), http.StatusBadRequest},
		{"not found", fmt.Errorf("Summary: %w", store.ErrNotFound), http.StatusNotFound},
		{"store failure", errors.New("bigquery unavailable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAnalytics{
				SummaryFunc: func(ctx context.Context, ownerID, start, end string) (*analytics.PeriodSummary, error) {
					return nil, tt.err
				},
			}
			h := NewAnalyticsHandler(svc, zerolog.Nop())
			rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/analytics/summary?start=x", "alice", "")
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "bigquery")
			}
		})
	}
}

func TestAnalyticsHandler_Summary(t *testing.T) {
	var gotStart, gotEnd string
	svc := &MockAnalytics{
		SummaryFunc: func(ctx context.Context, ownerID, start, end string) (*analytics.PeriodSummary, error) {
			gotStart, gotEnd = start, end
			return &analytics.PeriodSummary{TotalIncome: 3000, TotalExpenses: 1200.5, Net: 1799.5}, nil
		},
	}
	h := NewAnalyticsHandler(svc, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/analytics/summary?start=2024-03-01&end=2024-03-31", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-01", gotStart)
	assert.Equal(t, "2024-03-31", gotEnd)
	assert.Equal(t, 1799.5, decode(t, rec)["net"])
}

func TestAnalyticsHandler_CashFlowAndForecast(t *testing.T) {
	var cashMonths, horizon int
	svc := &MockAnalytics{
		CashFlowFunc: func(ctx context.Context, ownerID string, months int) ([]analytics.MonthlyBucket, error) {
			cashMonths = months
			return []analytics.MonthlyBucket{{Month: "2024-05"}, {Month: "2024-06"}}, nil
		},
		ForecastFunc: func(ctx context.Context, ownerID string, h int) (*analytics.ForecastResult, error) {
			horizon = h
			return &analytics.ForecastResult{Forecast: []analytics.ForecastPoint{{Month: "2024-07"}}}, nil
		},
	}
	h := NewAnalyticsHandler(svc, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/analytics/cash-flow", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, cashMonths)
	assert.Equal(t, float64(2), decode(t, rec)["count"])

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/analytics/forecast?months=4", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, horizon)
}

func TestAnalyticsHandler_Equity(t *testing.T) {
	svc := &MockAnalytics{
		EquityFunc: func(ctx context.Context, ownerID string) (*analytics.EquitySnapshot, error) {
			return &analytics.EquitySnapshot{TotalAssets: 1000, TotalLiabilities: 250, NetWorth: 750, DebtToAssetRatio: 0.25}, nil
		},
	}
	h := NewAnalyticsHandler(svc, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/analytics/equity", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(750), body["net_worth"])
	assert.Equal(t, 0.25, body["debt_to_asset_ratio"])
}

func TestAnalyticsHandler_ConfirmSubscription(t *testing.T) {
	var got service.ConfirmRequest
	svc := &MockAnalytics{
		ConfirmSubscriptionFunc: func(ctx context.Context, ownerID string, req service.ConfirmRequest) (*domain.Subscription, error) {
			got = req
			return &domain.Subscription{ID: "sub-1", OwnerID: ownerID, Name: req.Name, Amount: req.Amount, Frequency: req.Frequency}, nil
		},
		ListSubscriptionsFunc: func(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
			return nil, nil
		},
	}
	h := NewAnalyticsHandler(svc, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodPost, "/api/analytics/subscriptions/confirm", "alice",
		`{"name":"Spotify","amount":"9.99","frequency":"monthly","next_billing_date":"2024-07-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Spotify", got.Name)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, "2024-07-01", got.NextBillingDate)
	assert.Equal(t, "sub-1", decode(t, rec)["id"])

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/analytics/subscriptions/confirmed", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscriptions":[],"count":0}`, rec.Body.String())
}

func TestReportsHandler_EnqueueReport(t *testing.T) {
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(10, jobStore)
	defer queue.Close()
	h := NewReportsHandler(queue, &MockReports{}, nil, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodPost, "/api/reports", "alice", `{"start":"2024-06-01","narrate":true,"horizon":6}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "pending", body["status"])
	jobID := body["job_id"].(string)
	require.NotEmpty(t, jobID)

	job, err := jobStore.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, "alice", job.OwnerID)
	assert.Equal(t, "2024-06-01", job.Start)
	assert.Equal(t, 6, job.Horizon)
	assert.True(t, job.Narrate)

	rec = serve(t, h.RegisterRoutes, http.MethodPost, "/api/reports", "alice", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = serve(t, h.RegisterRoutes, http.MethodPost, "/api/reports", "alice", `{"horizon":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsHandler_EnqueueOnClosedQueue(t *testing.T) {
	queue := inmemory.NewQueue(1, inmemory.NewStore())
	require.NoError(t, queue.Close())
	h := NewReportsHandler(queue, &MockReports{}, nil, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodPost, "/api/reports", "alice", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReportsHandler_GetReport(t *testing.T) {
	reports := &MockReports{
		GetReportFunc: func(ctx context.Context, id string) (*domain.Report, error) {
			if id != "rep-1" {
				return nil, fmt.Errorf("GetReport: %s: %w", id, store.ErrNotFound)
			}
			return &domain.Report{ID: "rep-1", OwnerID: "alice", NetWorth: 750}, nil
		},
	}
	h := NewReportsHandler(nil, reports, nil, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/reports/rep-1", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(750), decode(t, rec)["net_worth"])

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/reports/rep-1", "bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/reports/missing", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// MockArchive is a mock implementation of gcs.StorageService.
type MockArchive struct {
	FetchFromGCSFunc func(ctx context.Context, gcsURI string) ([]byte, error)
}

func (m *MockArchive) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	return "", errors.New("not implemented")
}

func (m *MockArchive) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return m.FetchFromGCSFunc(ctx, gcsURI)
}

func TestReportsHandler_GetReportDocument(t *testing.T) {
	reports := &MockReports{
		GetReportFunc: func(ctx context.Context, id string) (*domain.Report, error) {
			switch id {
			case "archived":
				return &domain.Report{ID: id, OwnerID: "alice", URI: "gs://bucket/reports/alice/archived.json"}, nil
			case "broken":
				return &domain.Report{ID: id, OwnerID: "alice", URI: "gs://bucket/reports/alice/broken.json"}, nil
			}
			return &domain.Report{ID: id, OwnerID: "alice"}, nil
		},
	}
	var fetched string
	archive := &MockArchive{
		FetchFromGCSFunc: func(ctx context.Context, gcsURI string) ([]byte, error) {
			fetched = gcsURI
			if strings.HasSuffix(gcsURI, "broken.json") {
				return nil, errors.New("storage: object doesn't exist")
			}
			return []byte(`{"id":"archived"}`), nil
		},
	}
	h := NewReportsHandler(nil, reports, archive, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/reports/archived/document", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"archived"}`, rec.Body.String())
	assert.Equal(t, "gs://bucket/reports/alice/archived.json", fetched)

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/reports/local/document", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/reports/broken/document", "alice", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(t, NewReportsHandler(nil, reports, nil, zerolog.Nop()).RegisterRoutes, http.MethodGet, "/api/reports/archived/document", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobsHandler(t *testing.T) {
	ctx := context.Background()
	jobStore := inmemory.NewStore()
	for _, j := range []*jobs.GenerateReportJob{
		{JobID: "j1", OwnerID: "alice", Status: jobs.JobStatusCompleted},
		{JobID: "j2", OwnerID: "alice", Status: jobs.JobStatusFailed},
		{JobID: "j3", OwnerID: "bob", Status: jobs.JobStatusCompleted},
	} {
		require.NoError(t, jobStore.SaveJob(ctx, j))
	}
	h := NewJobsHandler(jobStore, zerolog.Nop())

	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/api/jobs/j2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", decode(t, rec)["status"])

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/jobs/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/jobs?owner_id=alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["count"])

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/jobs?status=completed", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/jobs?owner_id=carol", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[],"count":0}`, rec.Body.String())

	rec = serve(t, h.RegisterRoutes, http.MethodGet, "/api/jobs?limit=x", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
