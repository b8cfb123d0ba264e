package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// ConfirmSubscription upserts sub keyed by (owner, normalized key). On
// conflict the stored id and creation time are kept and written back to sub.
func (s *Store) ConfirmSubscription(ctx context.Context, sub *domain.Subscription) error {
	if sub.OwnerID == "" || sub.NormalizedKey == "" {
		return fmt.Errorf("ConfirmSubscription: owner and normalized key are required")
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	now := time.Now().UTC().Format(tsLayout)
	var created string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (
			id, user_id, name, normalized_key, amount, frequency,
			category_id, next_billing_date, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, normalized_key) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			frequency = excluded.frequency,
			category_id = excluded.category_id,
			next_billing_date = excluded.next_billing_date,
			is_active = excluded.is_active,
			updated_at = ?
		RETURNING id, created_at
	`,
		sub.ID, sub.OwnerID, sub.Name, sub.NormalizedKey, sub.Amount.String(), sub.Frequency,
		nullInt64(sub.CategoryID), nullDate(sub.NextBillingDate), sub.IsActive, sub.CreatedAt.Format(tsLayout),
		now,
	).Scan(&sub.ID, &created)
	if err != nil {
		return fmt.Errorf("ConfirmSubscription: upserting: %w", err)
	}
	if sub.CreatedAt, err = parseTimestamp(created); err != nil {
		return fmt.Errorf("ConfirmSubscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns the subscriptions of ownerID by name.
func (s *Store) ListSubscriptions(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, normalized_key, amount, frequency,
		       category_id, next_billing_date, is_active, created_at
		FROM subscriptions
		WHERE user_id = ?
		ORDER BY name, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListSubscriptions: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		var (
			sub             domain.Subscription
			amount, created string
			categoryID      sql.NullInt64
			nextBilling     sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.OwnerID, &sub.Name, &sub.NormalizedKey, &amount, &sub.Frequency,
			&categoryID, &nextBilling, &sub.IsActive, &created); err != nil {
			return nil, fmt.Errorf("ListSubscriptions: scanning: %w", err)
		}
		if sub.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("ListSubscriptions: %w", err)
		}
		if sub.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, fmt.Errorf("ListSubscriptions: %w", err)
		}
		if nextBilling.Valid {
			if sub.NextBillingDate, err = parseDate(nextBilling.String); err != nil {
				return nil, fmt.Errorf("ListSubscriptions: %w", err)
			}
		}
		sub.CategoryID = categoryID.Int64
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSubscriptions: iterating: %w", err)
	}
	return out, nil
}
