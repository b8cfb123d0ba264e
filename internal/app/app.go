// Package app opens the backends selected by configuration. It is shared by
// every binary under cmd/.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-analytics/internal/config"
	"github.com/dvloznov/finance-analytics/internal/gcs"
	"github.com/dvloznov/finance-analytics/internal/gcsuploader"
	infraBQ "github.com/dvloznov/finance-analytics/internal/infra/bigquery"
	"github.com/dvloznov/finance-analytics/internal/insights"
	"github.com/dvloznov/finance-analytics/internal/report"
	"github.com/dvloznov/finance-analytics/internal/store"
	"github.com/dvloznov/finance-analytics/internal/store/sqlite"
)

// OpenStore connects to the configured store backend.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.GCPProject, cfg.BQDataset)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		log.Info().Str("project", cfg.GCPProject).Str("dataset", cfg.BQDataset).Msg("using bigquery store")
		return repo, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return db, nil
	}
	return nil, fmt.Errorf("OpenStore: unknown backend %q", cfg.StoreBackend)
}

// OpenStorage connects to the report archive bucket. It returns nil when
// GCS_BUCKET is unset or the client cannot start.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) gcs.StorageService {
	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - reports will not be archived")
		return nil
	}
	storage, err := gcsuploader.NewGCSStorageService(ctx, cfg.GCSBucket)
	if err != nil {
		log.Warn().Err(err).Msg("GCS unavailable - reports will not be archived")
		return nil
	}
	return storage
}

// GeneratorOptions turns the optional integrations into report generator
// options. storage may be nil. Narratives need GEMINI_MODEL and are skipped
// with a warning when the client cannot start.
func GeneratorOptions(ctx context.Context, cfg *config.Config, storage gcs.StorageService, log zerolog.Logger) []report.Option {
	opts := []report.Option{
		report.WithLogger(log),
		report.WithDefaults(report.Defaults{
			LookbackMonths: cfg.DefaultLookbackMonths,
			CashFlowMonths: cfg.CashFlowMonths,
			Horizon:        cfg.ForecastHorizon,
		}),
	}
	if storage != nil {
		opts = append(opts, report.WithStorage(storage))
	}

	if cfg.GeminiModel != "" {
		narrator, err := insights.NewGeminiNarrator(ctx, cfg.GeminiModel)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini unavailable - narratives disabled")
		} else {
			opts = append(opts, report.WithNarrator(narrator))
		}
	}
	return opts
}
