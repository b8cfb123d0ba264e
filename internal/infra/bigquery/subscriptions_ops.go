package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

const subscriptionsTable = "subscriptions"

// MergeSubscriptionWithClient upserts a subscription keyed by
// (user_id, normalized_key). An existing row keeps its id and created_ts.
func MergeSubscriptionWithClient(ctx context.Context, client *bigquery.Client, dataset string, row *SubscriptionRow) error {
	if row.UserID == "" || row.NormalizedKey == "" {
		return fmt.Errorf("MergeSubscription: user_id and normalized_key are required")
	}
	if row.SubscriptionID == "" {
		row.SubscriptionID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now()
	}

	q := client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @user_id AS user_id, @normalized_key AS normalized_key) s
		ON t.user_id = s.user_id AND t.normalized_key = s.normalized_key
		WHEN MATCHED THEN UPDATE SET
			name = @name,
			amount = @amount,
			frequency = @frequency,
			category_id = @category_id,
			next_billing_date = @next_billing_date,
			is_active = @is_active,
			updated_ts = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN INSERT (
			subscription_id, user_id, name, normalized_key, amount, frequency,
			category_id, next_billing_date, is_active, created_ts
		) VALUES (
			@subscription_id, @user_id, @name, @normalized_key, @amount, @frequency,
			@category_id, @next_billing_date, @is_active, @created_ts
		)
	`, tableRef(client.Project(), dataset, subscriptionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "subscription_id", Value: row.SubscriptionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "name", Value: row.Name},
		{Name: "normalized_key", Value: row.NormalizedKey},
		{Name: "amount", Value: row.Amount},
		{Name: "frequency", Value: row.Frequency},
		{Name: "category_id", Value: row.CategoryID},
		{Name: "next_billing_date", Value: row.NextBillingDate},
		{Name: "is_active", Value: row.IsActive},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MergeSubscription: running merge: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MergeSubscription: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MergeSubscription: job error: %w", err)
	}
	return nil
}

// ListSubscriptionsWithClient returns the subscriptions of ownerID by name.
func ListSubscriptionsWithClient(ctx context.Context, client *bigquery.Client, dataset, ownerID string) ([]*SubscriptionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			subscription_id,
			user_id,
			name,
			normalized_key,
			amount,
			frequency,
			category_id,
			next_billing_date,
			is_active,
			created_ts,
			updated_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY name
	`, tableRef(client.Project(), dataset, subscriptionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: ownerID}}

	return readRows[SubscriptionRow](ctx, q, "ListSubscriptions")
}
