package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// QueryTransactionsByDateRange returns the transactions of ownerID dated
// within [start, end]. An empty ownerID matches every owner.
func (s *Store) QueryTransactionsByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, txn_date, amount, description, merchant, category_id
		FROM transactions
		WHERE txn_date >= ? AND txn_date <= ?
		  AND (? = '' OR user_id = ?)
		ORDER BY txn_date, id
	`, start.Format(dateLayout), end.Format(dateLayout), ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: querying: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			tx           domain.Transaction
			date, amount string
			merchant     sql.NullString
			categoryID   sql.NullInt64
		)
		if err := rows.Scan(&tx.ID, &tx.OwnerID, &tx.AccountID, &date, &amount, &tx.Description, &merchant, &categoryID); err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: scanning: %w", err)
		}
		if tx.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: %w", err)
		}
		if tx.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: %w", err)
		}
		tx.Merchant = merchant.String
		tx.CategoryID = categoryID.Int64
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: iterating: %w", err)
	}
	return txs, nil
}

// ListActiveCategories retrieves all active categories by name.
func (s *Store) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon, color, is_income, budget_limit
		FROM categories
		WHERE is_active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("ListActiveCategories: querying: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var (
			c      domain.Category
			budget string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.IsIncome, &budget); err != nil {
			return nil, fmt.Errorf("ListActiveCategories: scanning: %w", err)
		}
		if c.BudgetLimit, err = parseDecimal(budget); err != nil {
			return nil, fmt.Errorf("ListActiveCategories: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveCategories: iterating: %w", err)
	}
	return cats, nil
}
