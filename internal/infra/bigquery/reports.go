package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

type ReportRow struct {
	ReportID    string    `bigquery:"report_id"`    // REQUIRED
	UserID      string    `bigquery:"user_id"`      // REQUIRED
	GeneratedTS time.Time `bigquery:"generated_ts"` // REQUIRED

	PeriodStart civil.Date `bigquery:"period_start"` // REQUIRED
	PeriodEnd   civil.Date `bigquery:"period_end"`   // REQUIRED

	GCSURI bigquery.NullString `bigquery:"gcs_uri"` // NULLABLE

	NetWorth          float64 `bigquery:"net_worth"`
	PeriodNet         float64 `bigquery:"period_net"`
	SubscriptionCount int64   `bigquery:"subscription_count"`
	HasNarrative      bool    `bigquery:"has_narrative"`
}

func ReportRowFromDomain(r *domain.Report) *ReportRow {
	row := &ReportRow{
		ReportID:          r.ID,
		UserID:            r.OwnerID,
		GeneratedTS:       r.GeneratedAt,
		PeriodStart:       civil.DateOf(r.PeriodStart),
		PeriodEnd:         civil.DateOf(r.PeriodEnd),
		NetWorth:          r.NetWorth,
		PeriodNet:         r.PeriodNet,
		SubscriptionCount: int64(r.SubscriptionCount),
		HasNarrative:      r.HasNarrative,
	}
	if r.URI != "" {
		row.GCSURI = bigquery.NullString{StringVal: r.URI, Valid: true}
	}
	return row
}

func (r *ReportRow) ToDomain() domain.Report {
	return domain.Report{
		ID:                r.ReportID,
		OwnerID:           r.UserID,
		GeneratedAt:       r.GeneratedTS,
		PeriodStart:       r.PeriodStart.In(time.UTC),
		PeriodEnd:         r.PeriodEnd.In(time.UTC),
		URI:               r.GCSURI.StringVal,
		NetWorth:          r.NetWorth,
		PeriodNet:         r.PeriodNet,
		SubscriptionCount: int(r.SubscriptionCount),
		HasNarrative:      r.HasNarrative,
	}
}
