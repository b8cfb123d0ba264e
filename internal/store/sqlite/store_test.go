package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-analytics/internal/domain"
	"github.com/dvloznov/finance-analytics/internal/store"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func exec(t *testing.T, s *Store, query string, args ...interface{}) {
	t.Helper()
	_, err := s.DB().Exec(query, args...)
	require.NoError(t, err)
}

func TestQueryTransactionsByDateRange(t *testing.T) {
	s := setupTestStore(t)
	exec(t, s, `INSERT INTO categories (id, name, budget_limit) VALUES (1, 'Streaming', '20')`)
	exec(t, s, `
		INSERT INTO transactions (id, user_id, txn_date, amount, description, merchant, category_id) VALUES
			('t1', 'alice', '2024-02-28', '-15.99', 'NETFLIX.COM', 'Netflix', 1),
			('t2', 'alice', '2024-03-01', '3000', 'SALARY', NULL, NULL),
			('t3', 'alice', '2024-03-31', '-10.005', 'COFFEE', NULL, NULL),
			('t4', 'bob',   '2024-03-15', '-99', 'OTHER', NULL, NULL)
	`)

	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	txs, err := s.QueryTransactionsByDateRange(ctx, "alice", start, end)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "t2", txs[0].ID)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(3000)))
	assert.Empty(t, txs[0].Merchant)
	assert.Zero(t, txs[0].CategoryID)
	assert.Equal(t, "-10.005", txs[1].Amount.String())

	all, err := s.QueryTransactionsByDateRange(ctx, "", start, end)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	feb, err := s.QueryTransactionsByDateRange(ctx, "alice", start.AddDate(0, -1, 0), start.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, feb, 1)
	assert.Equal(t, "Netflix", feb[0].Merchant)
	assert.Equal(t, int64(1), feb[0].CategoryID)
}

func TestListActiveCategories(t *testing.T) {
	s := setupTestStore(t)
	exec(t, s, `
		INSERT INTO categories (id, name, icon, is_income, budget_limit, is_active) VALUES
			(1, 'Salary', 'briefcase', 1, '0', 1),
			(2, 'Groceries', 'cart', 0, '450.50', 1),
			(3, 'Retired', '', 0, '0', 0)
	`)

	cats, err := s.ListActiveCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Groceries", cats[0].Name)
	assert.Equal(t, "450.5", cats[0].BudgetLimit.String())
	assert.True(t, cats[1].IsIncome)
}

func TestSnapshots(t *testing.T) {
	s := setupTestStore(t)
	exec(t, s, `
		INSERT INTO accounts (id, user_id, name, type, institution, closed_date) VALUES
			('a1', 'alice', 'Current', 'CHECKING', 'Barclays', NULL),
			('a2', 'alice', 'Old', 'SAVINGS', '', '2023-01-01');
		INSERT INTO account_balances (account_id, balance, as_of) VALUES
			('a1', '100', '2024-01-01T00:00:00Z'),
			('a1', '250.25', '2024-02-01T00:00:00Z');
		INSERT INTO liabilities (id, user_id, name, type) VALUES ('l1', 'alice', 'Card', 'CREDIT_CARD');
		INSERT INTO properties (id, user_id, name, type, current_value) VALUES
			('p1', 'alice', 'Flat', 'RESIDENCE', '300000'),
			('p2', 'alice', 'Plot', 'LAND', NULL);
		INSERT INTO mortgages (id, property_id, lender, balance, is_active) VALUES
			('m1', 'p1', 'Nationwide', '200000', 1);
		INSERT INTO portfolios (id, user_id, name) VALUES ('pf', 'alice', 'ISA');
		INSERT INTO holdings (id, portfolio_id, symbol, type, quantity, purchase_price, current_price) VALUES
			('h1', 'pf', 'VWRL', 'ETF', '10', '100', '110'),
			('h2', 'pf', 'XYZ', 'STOCK', '1', '5', NULL);
	`)
	ctx := context.Background()

	accounts, err := s.ListAccounts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "250.25", accounts[0].Balance.String())

	liabilities, err := s.ListLiabilities(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, liabilities, 1)
	assert.True(t, liabilities[0].Balance.IsZero())

	props, err := s.ListProperties(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "Flat", props[0].Name)
	require.Len(t, props[0].Mortgages, 1)
	assert.True(t, props[0].Mortgages[0].IsActive)
	assert.Nil(t, props[1].CurrentValue)

	holdings, err := s.ListHoldings(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "ISA", holdings[0].PortfolioName)
	require.NotNil(t, holdings[0].CurrentPrice)
	assert.Nil(t, holdings[1].CurrentPrice)
}

func TestConfirmSubscription_Upserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := &domain.Subscription{
		OwnerID:       "alice",
		Name:          "Netflix",
		NormalizedKey: "netflix netflix.com",
		Amount:        decimal.RequireFromString("15.99"),
		Frequency:     "monthly",
		IsActive:      true,
	}
	require.NoError(t, s.ConfirmSubscription(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &domain.Subscription{
		OwnerID:         "alice",
		Name:            "Netflix Premium",
		NormalizedKey:   "netflix netflix.com",
		Amount:          decimal.RequireFromString("17.99"),
		Frequency:       "monthly",
		NextBillingDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
	}
	require.NoError(t, s.ConfirmSubscription(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	subs, err := s.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Netflix Premium", subs[0].Name)
	assert.Equal(t, "17.99", subs[0].Amount.String())
	assert.Equal(t, second.NextBillingDate, subs[0].NextBillingDate)

	err = s.ConfirmSubscription(ctx, &domain.Subscription{OwnerID: "alice"})
	assert.Error(t, err)
}

func TestReports(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rep := &domain.Report{
		ID:                "r1",
		OwnerID:           "alice",
		GeneratedAt:       time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		PeriodStart:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		URI:               "gs://bucket/reports/alice/r1.json",
		NetWorth:          1234.5,
		SubscriptionCount: 3,
	}
	require.NoError(t, s.InsertReport(ctx, rep))

	got, err := s.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, rep, got)

	_, err = s.GetReport(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
