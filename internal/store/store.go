// Package store declares the read and write contracts the analytics service
// needs from a backing store. Implementations live in internal/infra/bigquery
// and internal/store/sqlite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TransactionRepository provides read access to ledger transactions.
type TransactionRepository interface {
	// QueryTransactionsByDateRange returns the owner's transactions dated
	// within [start, end], ordered by date.
	QueryTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Transaction, error)
}

// CategoryRepository provides read access to category metadata.
type CategoryRepository interface {
	// ListActiveCategories retrieves all active categories.
	ListActiveCategories(ctx context.Context) ([]domain.Category, error)
}

// SnapshotRepository provides the latest balances and valuations of an owner.
type SnapshotRepository interface {
	ListAccounts(ctx context.Context, ownerID string) ([]domain.AccountSnapshot, error)
	ListLiabilities(ctx context.Context, ownerID string) ([]domain.LiabilitySnapshot, error)
	ListProperties(ctx context.Context, ownerID string) ([]domain.PropertySnapshot, error)
	ListHoldings(ctx context.Context, ownerID string) ([]domain.HoldingSnapshot, error)
}

// SubscriptionRepository stores user-confirmed subscriptions.
type SubscriptionRepository interface {
	// ConfirmSubscription creates the subscription or, when the owner already
	// has one with the same normalized key, updates it in place.
	ConfirmSubscription(ctx context.Context, sub *domain.Subscription) error

	// ListSubscriptions returns the owner's subscriptions ordered by name.
	ListSubscriptions(ctx context.Context, ownerID string) ([]domain.Subscription, error)
}

// ReportRepository records generated report metadata.
type ReportRepository interface {
	InsertReport(ctx context.Context, report *domain.Report) error

	// GetReport returns ErrNotFound when id is unknown.
	GetReport(ctx context.Context, id string) (*domain.Report, error)
}

// Store bundles every repository behind one connection.
type Store interface {
	TransactionRepository
	CategoryRepository
	SnapshotRepository
	SubscriptionRepository
	ReportRepository

	Close() error
}
