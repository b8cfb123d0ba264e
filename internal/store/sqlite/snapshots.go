package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// ListAccounts returns the open accounts of ownerID with their latest balance.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]domain.AccountSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.type, a.institution,
		       (SELECT b.balance FROM account_balances b
		         WHERE b.account_id = a.id ORDER BY b.as_of DESC LIMIT 1)
		FROM accounts a
		WHERE a.user_id = ? AND a.closed_date IS NULL
		ORDER BY a.name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountSnapshot
	for rows.Next() {
		var (
			a       domain.AccountSnapshot
			balance sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Institution, &balance); err != nil {
			return nil, fmt.Errorf("ListAccounts: scanning: %w", err)
		}
		if b, err := parseNullDecimal(balance); err != nil {
			return nil, fmt.Errorf("ListAccounts: %w", err)
		} else if b != nil {
			a.Balance = *b
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccounts: iterating: %w", err)
	}
	return out, nil
}

// ListLiabilities returns the liabilities of ownerID with their latest balance.
func (s *Store) ListLiabilities(ctx context.Context, ownerID string) ([]domain.LiabilitySnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.type, l.institution,
		       (SELECT b.balance FROM liability_balances b
		         WHERE b.liability_id = l.id ORDER BY b.as_of DESC LIMIT 1)
		FROM liabilities l
		WHERE l.user_id = ?
		ORDER BY l.name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListLiabilities: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.LiabilitySnapshot
	for rows.Next() {
		var (
			l       domain.LiabilitySnapshot
			balance sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.Type, &l.Institution, &balance); err != nil {
			return nil, fmt.Errorf("ListLiabilities: scanning: %w", err)
		}
		if b, err := parseNullDecimal(balance); err != nil {
			return nil, fmt.Errorf("ListLiabilities: %w", err)
		} else if b != nil {
			l.Balance = *b
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListLiabilities: iterating: %w", err)
	}
	return out, nil
}

// ListProperties returns the properties of ownerID with their mortgages.
func (s *Store) ListProperties(ctx context.Context, ownerID string) ([]domain.PropertySnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, current_value
		FROM properties
		WHERE user_id = ?
		ORDER BY name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListProperties: querying: %w", err)
	}

	var props []domain.PropertySnapshot
	index := make(map[string]int)
	for rows.Next() {
		var (
			p     domain.PropertySnapshot
			value sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ListProperties: scanning: %w", err)
		}
		if p.CurrentValue, err = parseNullDecimal(value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ListProperties: %w", err)
		}
		index[p.ID] = len(props)
		props = append(props, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListProperties: iterating: %w", err)
	}

	mrows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.property_id, m.lender, m.balance, m.is_active
		FROM mortgages m
		JOIN properties p ON p.id = m.property_id
		WHERE p.user_id = ?
		ORDER BY m.id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListProperties: querying mortgages: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			m          domain.MortgageSnapshot
			propertyID string
			balance    string
		)
		if err := mrows.Scan(&m.ID, &propertyID, &m.Lender, &balance, &m.IsActive); err != nil {
			return nil, fmt.Errorf("ListProperties: scanning mortgage: %w", err)
		}
		if m.Balance, err = parseDecimal(balance); err != nil {
			return nil, fmt.Errorf("ListProperties: %w", err)
		}
		if i, ok := index[propertyID]; ok {
			props[i].Mortgages = append(props[i].Mortgages, m)
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("ListProperties: iterating mortgages: %w", err)
	}
	return props, nil
}

// ListHoldings returns every holding across the portfolios of ownerID.
func (s *Store) ListHoldings(ctx context.Context, ownerID string) ([]domain.HoldingSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.portfolio_id, p.name, h.symbol, h.type,
		       h.quantity, h.purchase_price, h.current_price
		FROM holdings h
		JOIN portfolios p ON p.id = h.portfolio_id
		WHERE p.user_id = ?
		ORDER BY p.name, h.symbol
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListHoldings: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.HoldingSnapshot
	for rows.Next() {
		var (
			h               domain.HoldingSnapshot
			quantity, price string
			current         sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.PortfolioID, &h.PortfolioName, &h.Symbol, &h.Type, &quantity, &price, &current); err != nil {
			return nil, fmt.Errorf("ListHoldings: scanning: %w", err)
		}
		if h.Quantity, err = parseDecimal(quantity); err != nil {
			return nil, fmt.Errorf("ListHoldings: %w", err)
		}
		if h.PurchasePrice, err = parseDecimal(price); err != nil {
			return nil, fmt.Errorf("ListHoldings: %w", err)
		}
		if h.CurrentPrice, err = parseNullDecimal(current); err != nil {
			return nil, fmt.Errorf("ListHoldings: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListHoldings: iterating: %w", err)
	}
	return out, nil
}
