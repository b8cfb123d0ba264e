package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/app"
	"github.com/dvloznov/finance-analytics/internal/config"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/notionsync"
	"github.com/dvloznov/finance-analytics/internal/service"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	owner := flag.String("owner", "", "Owner whose subscriptions are synced (required)")
	months := flag.Int("months", cfg.DefaultLookbackMonths, "Lookback window in months")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", cfg.NotionSubscriptionsDB, "Notion database ID (or set NOTION_SUBSCRIPTIONS_DB env)")
	archiveStale := flag.Bool("archive-stale", false, "Archive Notion rows that are no longer detected")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if *owner == "" {
		log.Fatal().Msg("Error: --owner is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("owner_id", *owner).
		Int("months", *months).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	res, err := service.New(st, analytics.SystemClock, log).Subscriptions(ctx, *owner, *months)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to detect subscriptions")
	}

	result, err := notionsync.SyncSubscriptions(ctx, notionsync.NewClient(*notionToken), *notionDBID, res.Subscriptions, notionsync.SyncOptions{
		DryRun:       *dryRun,
		ArchiveStale: *archiveStale,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		result.Created, result.Updated, result.Archived, result.Failed)
}
