package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/logger"
)

// pageSize is the Notion maximum for database queries.
const pageSize = 100

// SyncOptions controls a subscription sync.
type SyncOptions struct {
	// DryRun logs intended changes without calling the write endpoints.
	DryRun bool
	// ArchiveStale archives rows whose key was not detected this time.
	ArchiveStale bool
}

// SyncResult counts the changes a sync made, or would make on a dry run.
type SyncResult struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// SyncSubscriptions upserts detected subscriptions into a Notion database,
// one row per normalized key. A failing row is logged and counted, and the
// sync moves on to the next one.
func SyncSubscriptions(ctx context.Context, notionClient NotionService, databaseID string, subs []analytics.DetectedSubscription, opts SyncOptions) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	log.Info().
		Int("subscriptions", len(subs)).
		Bool("dry_run", opts.DryRun).
		Msg("starting subscription sync to Notion")

	pages, err := queryAllNotionPages(ctx, notionClient, databaseID)
	if err != nil {
		return res, fmt.Errorf("SyncSubscriptions: %w", err)
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		if key := extractKey(page); key != "" {
			existing[key] = string(page.ID)
		}
	}
	log.Info().Int("notion_rows", len(existing)).Msg("retrieved existing Notion rows")

	detected := make(map[string]bool, len(subs))
	for _, sub := range subs {
		detected[sub.NormalizedKey] = true
		pageID, found := existing[sub.NormalizedKey]
		rowLog := log.With().Str("normalized_key", sub.NormalizedKey).Str("page_id", pageID).Logger()

		if opts.DryRun {
			if found {
				rowLog.Info().Msg("[DRY RUN] would update Notion row")
				res.Updated++
			} else {
				rowLog.Info().Msg("[DRY RUN] would create Notion row")
				res.Created++
			}
			continue
		}

		props := SubscriptionToNotionProperties(sub)
		if found {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				rowLog.Warn().Err(err).Msg("failed to update Notion row")
				res.Failed++
				continue
			}
			res.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, databaseID, props)
		if err != nil {
			rowLog.Warn().Err(err).Msg("failed to create Notion row")
			res.Failed++
			continue
		}
		existing[sub.NormalizedKey] = string(page.ID)
		res.Created++
	}

	if opts.ArchiveStale {
		for _, page := range pages {
			key := extractKey(page)
			if key == "" || detected[key] {
				continue
			}
			if opts.DryRun {
				log.Info().Str("normalized_key", key).Msg("[DRY RUN] would archive stale Notion row")
				res.Archived++
				continue
			}
			if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("normalized_key", key).Msg("failed to archive stale Notion row")
				res.Failed++
				continue
			}
			res.Archived++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("subscription sync completed")

	return res, nil
}

// queryAllNotionPages follows the cursor until every row is read.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: pageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
