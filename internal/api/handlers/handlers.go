package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/api/middleware"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/gcs"
	"github.com/dvloznov/finance-analytics/internal/jobs"
	"github.com/dvloznov/finance-analytics/internal/service"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// AnalyticsService is the part of service.Analytics the HTTP layer uses.
type AnalyticsService interface {
	Subscriptions(ctx context.Context, ownerID string, months int) (*service.SubscriptionsResult, error)
	ListSubscriptions(ctx context.Context, ownerID string) ([]domain.Subscription, error)
	ConfirmSubscription(ctx context.Context, ownerID string, req service.ConfirmRequest) (*domain.Subscription, error)
	Summary(ctx context.Context, ownerID, start, end string) (*analytics.PeriodSummary, error)
	CashFlow(ctx context.Context, ownerID string, months int) ([]analytics.MonthlyBucket, error)
	Forecast(ctx context.Context, ownerID string, horizon int) (*analytics.ForecastResult, error)
	Equity(ctx context.Context, ownerID string) (*analytics.EquitySnapshot, error)
}

var _ AnalyticsService = (*service.Analytics)(nil)

// writeServiceError maps err to a status code. Validation failures are
// echoed to the caller; anything unexpected is logged and hidden.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	var verr *analytics.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, msg+": not found")
	default:
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// intParam reads an optional non-negative integer query parameter. A
// missing parameter yields zero.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &analytics.ValidationError{Field: name, Value: raw, Reason: "must be a non-negative integer"}
	}
	return n, nil
}

// AnalyticsHandler serves the analytics endpoints.
type AnalyticsHandler struct {
	svc AnalyticsService
	log zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(svc AnalyticsService, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		svc: svc,
		log: log.With().Str("module", "analytics_handler").Logger(),
	}
}

// RegisterRoutes mounts the analytics endpoints under /analytics.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Get("/subscriptions", h.Subscriptions)
		r.Get("/subscriptions/confirmed", h.ListSubscriptions)
		r.Post("/subscriptions/confirm", h.ConfirmSubscription)
		r.Get("/summary", h.Summary)
		r.Get("/cash-flow", h.CashFlow)
		r.Get("/forecast", h.Forecast)
		r.Get("/equity", h.Equity)
	})
}

// Subscriptions handles GET /api/analytics/subscriptions
func (h *AnalyticsHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months")
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to detect subscriptions")
		return
	}

	result, err := h.svc.Subscriptions(r.Context(), middleware.OwnerFromContext(r.Context()), months)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to detect subscriptions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// ListSubscriptions handles GET /api/analytics/subscriptions/confirmed
func (h *AnalyticsHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListSubscriptions(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// ConfirmSubscription handles POST /api/analytics/subscriptions/confirm
func (h *AnalyticsHandler) ConfirmSubscription(w http.ResponseWriter, r *http.Request) {
	var req service.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.svc.ConfirmSubscription(r.Context(), middleware.OwnerFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to confirm subscription")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, sub)
}

// Summary handles GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.svc.Summary(r.Context(), middleware.OwnerFromContext(r.Context()), q.Get("start"), q.Get("end"))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to summarize period")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// CashFlow handles GET /api/analytics/cash-flow
func (h *AnalyticsHandler) CashFlow(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months")
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute cash flow")
		return
	}

	buckets, err := h.svc.CashFlow(r.Context(), middleware.OwnerFromContext(r.Context()), months)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute cash flow")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"months": buckets,
		"count":  len(buckets),
	})
}

// Forecast handles GET /api/analytics/forecast
func (h *AnalyticsHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	horizon, err := intParam(r, "months")
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to forecast")
		return
	}

	result, err := h.svc.Forecast(r.Context(), middleware.OwnerFromContext(r.Context()), horizon)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to forecast")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Equity handles GET /api/analytics/equity
func (h *AnalyticsHandler) Equity(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.Equity(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute equity")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, snapshot)
}

// ReportsHandler queues report generation and serves archived reports.
type ReportsHandler struct {
	publisher jobs.Publisher
	reports   store.ReportRepository
	archive   gcs.StorageService
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler. archive may be nil when
// reports are not archived.
func NewReportsHandler(publisher jobs.Publisher, reports store.ReportRepository, archive gcs.StorageService, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		publisher: publisher,
		reports:   reports,
		archive:   archive,
		log:       log.With().Str("module", "reports_handler").Logger(),
	}
}

// RegisterRoutes mounts the report endpoints under /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/", h.EnqueueReport)
		r.Get("/{id}", h.GetReport)
		r.Get("/{id}/document", h.GetReportDocument)
	})
}

// EnqueueReport handles POST /api/reports
func (h *ReportsHandler) EnqueueReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start          string `json:"start"`
		End            string `json:"end"`
		LookbackMonths int    `json:"lookback_months"`
		Horizon        int    `json:"horizon"`
		Narrate        bool   `json:"narrate"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.LookbackMonths < 0 || req.Horizon < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "lookback_months and horizon must not be negative")
		return
	}

	job := &jobs.GenerateReportJob{
		OwnerID:        middleware.OwnerFromContext(r.Context()),
		Start:          req.Start,
		End:            req.End,
		LookbackMonths: req.LookbackMonths,
		Horizon:        req.Horizon,
		Narrate:        req.Narrate,
	}
	if err := h.publisher.PublishGenerateReport(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("owner_id", job.OwnerID).Msg("Failed to enqueue report job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue report")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("owner_id", job.OwnerID).Msg("report job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.JobID,
		"status": job.Status,
	})
}

// ownedReport loads the report named in the URL, answering 404 when it
// belongs to another owner.
func (h *ReportsHandler) ownedReport(w http.ResponseWriter, r *http.Request) (*domain.Report, bool) {
	id := chi.URLParam(r, "id")
	report, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get report")
		return nil, false
	}
	if report.OwnerID != middleware.OwnerFromContext(r.Context()) {
		middleware.WriteError(w, http.StatusNotFound, "Failed to get report: not found")
		return nil, false
	}
	return report, true
}

// GetReport handles GET /api/reports/{id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.ownedReport(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

// GetReportDocument handles GET /api/reports/{id}/document
func (h *ReportsHandler) GetReportDocument(w http.ResponseWriter, r *http.Request) {
	report, ok := h.ownedReport(w, r)
	if !ok {
		return
	}
	if h.archive == nil || report.URI == "" {
		middleware.WriteError(w, http.StatusNotFound, "Report was not archived")
		return
	}

	data, err := h.archive.FetchFromGCS(r.Context(), report.URI)
	if err != nil {
		h.log.Error().Err(err).Str("report_id", report.ID).Str("uri", report.URI).Msg("Failed to fetch report document")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to fetch report document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log.With().Str("module", "jobs_handler").Logger(),
	}
}

// RegisterRoutes mounts the job endpoints under /jobs.
func (h *JobsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Get("/{id}", h.GetJob)
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, h.log.With().Str("job_id", jobID).Logger(), err, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		OwnerID: query.Get("owner_id"),
		Status:  jobs.JobStatus(query.Get("status")),
	}
	if filter.OwnerID == "" {
		filter.OwnerID = r.Header.Get(middleware.OwnerHeader)
	}

	var err error
	if filter.Limit, err = intParam(r, "limit"); err != nil {
		writeServiceError(w, h.log, err, "Failed to list jobs")
		return
	}
	if filter.Offset, err = intParam(r, "offset"); err != nil {
		writeServiceError(w, h.log, err, "Failed to list jobs")
		return
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list jobs")
		return
	}
	if jobsList == nil {
		jobsList = []*jobs.GenerateReportJob{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
