package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// InsertReport records report metadata.
func (s *Store) InsertReport(ctx context.Context, r *domain.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, user_id, generated_at, period_start, period_end, uri,
			net_worth, period_net, subscription_count, has_narrative
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.OwnerID, r.GeneratedAt.UTC().Format(tsLayout),
		r.PeriodStart.Format(dateLayout), r.PeriodEnd.Format(dateLayout), r.URI,
		r.NetWorth, r.PeriodNet, r.SubscriptionCount, r.HasNarrative,
	)
	if err != nil {
		return fmt.Errorf("InsertReport: inserting: %w", err)
	}
	return nil
}

// GetReport returns store.ErrNotFound for an unknown id.
func (s *Store) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	var (
		r                        domain.Report
		generated, start, finish string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, generated_at, period_start, period_end, uri,
		       net_worth, period_net, subscription_count, has_narrative
		FROM reports
		WHERE id = ?
	`, id).Scan(&r.ID, &r.OwnerID, &generated, &start, &finish, &r.URI,
		&r.NetWorth, &r.PeriodNet, &r.SubscriptionCount, &r.HasNarrative)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetReport: %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetReport: scanning: %w", err)
	}

	if r.GeneratedAt, err = parseTimestamp(generated); err != nil {
		return nil, fmt.Errorf("GetReport: %w", err)
	}
	if r.PeriodStart, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("GetReport: %w", err)
	}
	if r.PeriodEnd, err = parseDate(finish); err != nil {
		return nil, fmt.Errorf("GetReport: %w", err)
	}
	return &r, nil
}
