package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-analytics/internal/store"
)

const reportsTable = "reports"

// InsertReportWithClient streams one report row into the reports table.
func InsertReportWithClient(ctx context.Context, client *bigquery.Client, dataset string, row *ReportRow) error {
	inserter := client.Dataset(dataset).Table(reportsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertReport: inserting row: %w", err)
	}
	return nil
}

// GetReportWithClient returns store.ErrNotFound for an unknown id.
func GetReportWithClient(ctx context.Context, client *bigquery.Client, dataset, id string) (*ReportRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			report_id,
			user_id,
			generated_ts,
			period_start,
			period_end,
			gcs_uri,
			net_worth,
			period_net,
			subscription_count,
			has_narrative
		FROM %s
		WHERE report_id = @report_id
		LIMIT 1
	`, tableRef(client.Project(), dataset, reportsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "report_id", Value: id}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetReport: query read: %w", err)
	}

	var row ReportRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetReport: %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetReport: iter next: %w", err)
	}
	return &row, nil
}
