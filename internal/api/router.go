// Package api assembles the HTTP router of the analytics service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-analytics/internal/api/handlers"
	"github.com/dvloznov/finance-analytics/internal/api/middleware"
	"github.com/dvloznov/finance-analytics/internal/gcs"
	"github.com/dvloznov/finance-analytics/internal/jobs"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// Deps are the collaborators the routes are served from.
type Deps struct {
	Analytics   handlers.AnalyticsService
	Reports     store.ReportRepository
	Archive     gcs.StorageService // nil when reports are not archived
	Publisher   jobs.Publisher
	Jobs        jobs.JobStore
	CORSOrigins []string
	Log         zerolog.Logger
}

// NewRouter builds the chi router with middleware and all API routes.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.Auth)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		handlers.NewAnalyticsHandler(d.Analytics, d.Log).RegisterRoutes(r)
		handlers.NewReportsHandler(d.Publisher, d.Reports, d.Archive, d.Log).RegisterRoutes(r)
		handlers.NewJobsHandler(d.Jobs, d.Log).RegisterRoutes(r)
	})

	return r
}
