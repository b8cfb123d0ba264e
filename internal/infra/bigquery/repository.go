package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// Repository is the BigQuery implementation of store.Store. It holds a shared
// client so every operation reuses one connection.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository opens a BigQuery client for projectID and reads from dataset.
func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client, dataset: dataset}, nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, dataset string) *Repository {
	return &Repository{client: client, dataset: dataset}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// QueryTransactionsByDateRange delegates to QueryTransactionsByDateRangeWithClient.
func (r *Repository) QueryTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := QueryTransactionsByDateRangeWithClient(ctx, r.client, r.dataset, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.ToDomain())
	}
	return txs, nil
}

// ListActiveCategories delegates to ListActiveCategoriesWithClient.
func (r *Repository) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := ListActiveCategoriesWithClient(ctx, r.client, r.dataset)
	if err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, row.ToDomain())
	}
	return cats, nil
}

// ListAccounts delegates to ListAccountBalancesWithClient.
func (r *Repository) ListAccounts(ctx context.Context, ownerID string) ([]domain.AccountSnapshot, error) {
	rows, err := ListAccountBalancesWithClient(ctx, r.client, r.dataset, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AccountSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// ListLiabilities delegates to ListLiabilityBalancesWithClient.
func (r *Repository) ListLiabilities(ctx context.Context, ownerID string) ([]domain.LiabilitySnapshot, error) {
	rows, err := ListLiabilityBalancesWithClient(ctx, r.client, r.dataset, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LiabilitySnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// ListProperties delegates to ListPropertiesWithClient.
func (r *Repository) ListProperties(ctx context.Context, ownerID string) ([]domain.PropertySnapshot, error) {
	return ListPropertiesWithClient(ctx, r.client, r.dataset, ownerID)
}

// ListHoldings delegates to ListHoldingsWithClient.
func (r *Repository) ListHoldings(ctx context.Context, ownerID string) ([]domain.HoldingSnapshot, error) {
	rows, err := ListHoldingsWithClient(ctx, r.client, r.dataset, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HoldingSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// ConfirmSubscription delegates to MergeSubscriptionWithClient.
func (r *Repository) ConfirmSubscription(ctx context.Context, sub *domain.Subscription) error {
	return MergeSubscriptionWithClient(ctx, r.client, r.dataset, SubscriptionRowFromDomain(sub))
}

// ListSubscriptions delegates to ListSubscriptionsWithClient.
func (r *Repository) ListSubscriptions(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
	rows, err := ListSubscriptionsWithClient(ctx, r.client, r.dataset, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// InsertReport delegates to InsertReportWithClient.
func (r *Repository) InsertReport(ctx context.Context, report *domain.Report) error {
	return InsertReportWithClient(ctx, r.client, r.dataset, ReportRowFromDomain(report))
}

// GetReport delegates to GetReportWithClient.
func (r *Repository) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	row, err := GetReportWithClient(ctx, r.client, r.dataset, id)
	if err != nil {
		return nil, err
	}
	rep := row.ToDomain()
	return &rep, nil
}

var _ store.Store = (*Repository)(nil)
