package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/app"
	"github.com/dvloznov/finance-analytics/internal/config"
	"github.com/dvloznov/finance-analytics/internal/jobs/inmemory"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/report"
	"github.com/dvloznov/finance-analytics/internal/scheduler"
)

func main() {
	var (
		workers = flag.Int("workers", 2, "Number of report workers")
		narrate = flag.Bool("narrate", false, "Request an AI narrative with every scheduled report")
		runNow  = flag.Bool("run-now", false, "Generate reports for all owners once at startup")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	if err := checkMode(cfg, *runNow); err != nil {
		log.Fatal().Err(err).Msg("Nothing to do")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(*workers), inmemory.WithLogger(log))

	generator := report.NewGenerator(st, analytics.SystemClock, app.GeneratorOptions(ctx, cfg, app.OpenStorage(ctx, cfg, log), log)...)
	if err := jobQueue.Start(ctx, generator.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	sched := scheduler.New(log)
	reportJob := &scheduler.ReportJob{Publisher: jobQueue, Owners: cfg.ReportOwners, Narrate: *narrate}

	if cfg.ReportSchedule != "" {
		if err := sched.AddJob(cfg.ReportSchedule, reportJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule reports")
		}
		sched.Start()
		log.Info().
			Str("schedule", cfg.ReportSchedule).
			Strs("owners", cfg.ReportOwners).
			Msg("Report schedule registered")
	}

	if *runNow {
		if err := sched.RunNow(reportJob); err != nil {
			log.Error().Err(err).Msg("Initial report run failed")
		}
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancel()

	log.Info().Msg("Worker service stopped")
}

// checkMode fails when the worker has neither a schedule nor a one-off run.
func checkMode(cfg *config.Config, runNow bool) error {
	if cfg.ReportSchedule == "" && !runNow {
		return errors.New("REPORT_SCHEDULE is not set and -run-now was not given")
	}
	return nil
}
