package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

type SubscriptionRow struct {
	SubscriptionID string `bigquery:"subscription_id"` // REQUIRED
	UserID         string `bigquery:"user_id"`         // REQUIRED

	Name          string   `bigquery:"name"`           // REQUIRED
	NormalizedKey string   `bigquery:"normalized_key"` // REQUIRED, unique per user
	Amount        *big.Rat `bigquery:"amount"`         // REQUIRED NUMERIC
	Frequency     string   `bigquery:"frequency"`      // REQUIRED

	CategoryID      bigquery.NullInt64 `bigquery:"category_id"`       // NULLABLE
	NextBillingDate bigquery.NullDate  `bigquery:"next_billing_date"` // NULLABLE
	IsActive        bool               `bigquery:"is_active"`         // REQUIRED

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func SubscriptionRowFromDomain(s *domain.Subscription) *SubscriptionRow {
	row := &SubscriptionRow{
		SubscriptionID: s.ID,
		UserID:         s.OwnerID,
		Name:           s.Name,
		NormalizedKey:  s.NormalizedKey,
		Amount:         decimalToRat(s.Amount),
		Frequency:      s.Frequency,
		IsActive:       s.IsActive,
		CreatedTS:      s.CreatedAt,
	}
	if s.CategoryID != 0 {
		row.CategoryID = bigquery.NullInt64{Int64: s.CategoryID, Valid: true}
	}
	if !s.NextBillingDate.IsZero() {
		row.NextBillingDate = bigquery.NullDate{Date: civil.DateOf(s.NextBillingDate), Valid: true}
	}
	return row
}

func (r *SubscriptionRow) ToDomain() domain.Subscription {
	s := domain.Subscription{
		ID:            r.SubscriptionID,
		OwnerID:       r.UserID,
		Name:          r.Name,
		NormalizedKey: r.NormalizedKey,
		Amount:        ratToDecimal(r.Amount),
		Frequency:     r.Frequency,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedTS,
	}
	if r.CategoryID.Valid {
		s.CategoryID = r.CategoryID.Int64
	}
	if r.NextBillingDate.Valid {
		s.NextBillingDate = r.NextBillingDate.Date.In(time.UTC)
	}
	return s
}
