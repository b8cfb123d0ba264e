package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// readRows drains a query into a slice of T.
func readRows[T any](ctx context.Context, q *bigquery.Query, op string) ([]*T, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var rows []*T
	for {
		var r T
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

// ListAccountBalancesWithClient returns each account of ownerID with the
// balance from its latest snapshot.
func ListAccountBalancesWithClient(ctx context.Context, client *bigquery.Client, dataset, ownerID string) ([]*AccountBalanceRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			a.account_id,
			a.account_name,
			a.account_type,
			a.institution_name,
			b.balance
		FROM %s a
		LEFT JOIN (
			SELECT account_id, balance
			FROM %s
			WHERE TRUE
			QUALIFY ROW_NUMBER() OVER (PARTITION BY account_id ORDER BY as_of_ts DESC) = 1
		) b ON a.account_id = b.account_id
		WHERE a.user_id = @user_id
		  AND a.closed_date IS NULL
		ORDER BY a.account_name
	`, tableRef(client.Project(), dataset, "accounts"), tableRef(client.Project(), dataset, "account_balances")))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: ownerID}}

	return readRows[AccountBalanceRow](ctx, q, "ListAccountBalances")
}

// ListLiabilityBalancesWithClient returns each liability of ownerID with the
// balance from its latest snapshot.
func ListLiabilityBalancesWithClient(ctx context.Context, client *bigquery.Client, dataset, ownerID string) ([]*LiabilityBalanceRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			l.liability_id,
			l.liability_name,
			l.liability_type,
			l.institution_name,
			b.balance
		FROM %s l
		LEFT JOIN (
			SELECT liability_id, balance
			FROM %s
			WHERE TRUE
			QUALIFY ROW_NUMBER() OVER (PARTITION BY liability_id ORDER BY as_of_ts DESC) = 1
		) b ON l.liability_id = b.liability_id
		WHERE l.user_id = @user_id
		ORDER BY l.liability_name
	`, tableRef(client.Project(), dataset, "liabilities"), tableRef(client.Project(), dataset, "liability_balances")))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: ownerID}}

	return readRows[LiabilityBalanceRow](ctx, q, "ListLiabilityBalances")
}

// ListPropertiesWithClient returns the properties of ownerID with their
// mortgages attached.
func ListPropertiesWithClient(ctx context.Context, client *bigquery.Client, dataset, ownerID string) ([]domain.PropertySnapshot, error) {
	pq := client.Query(fmt.Sprintf(`
		SELECT property_id, property_name, property_type, current_value
		FROM %s
		WHERE user_id = @user_id
		ORDER BY property_name
	`, tableRef(client.Project(), dataset, "properties")))
	pq.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: ownerID}}

	props, err := readRows[PropertyRow](ctx, pq, "ListProperties")
	if err != nil {
		return nil, err
	}

	mq := client.Query(fmt.Sprintf(`
		SELECT m.mortgage_id, m.property_id, m.lender, m.balance, m.is_active
		FROM %s m
		JOIN %s p ON m.property_id = p.property_id
		WHERE p.user_id = @user_id
	`, tableRef(client.Project(), dataset, "mortgages"), tableRef(client.Project(), dataset, "properties")))
	mq.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: ownerID}}

	mortgages, err := readRows[MortgageRow](ctx, mq, "ListMortgages")
	if err != nil {
		return nil, err
	}

	byProperty := make(map[string][]domain.MortgageSnapshot)
	for _, m := range mortgages {
		byProperty[m.PropertyID] = append(byProperty[m.PropertyID], m.ToDomain())
	}

	out := make([]domain.PropertySnapshot, 0, len(props))
	for _, p := range props {
		out = append(out, domain.PropertySnapshot{
			ID:           p.PropertyID,
			Name:         p.PropertyName,
			Type:         p.PropertyType,
			CurrentValue: ratToDecimalPtr(p.CurrentValue),
			Mortgages:    byProperty[p.PropertyID],
		})
	}
	return out, nil
}

// ListHoldingsWithClient returns every holding across the portfolios of ownerID.
func ListHoldingsWithClient(ctx context.Context, client *bigquery.Client, dataset, ownerID string) ([]*HoldingRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			h.holding_id,
			h.portfolio_id,
			p.portfolio_name,
			h.symbol,
			h.holding_type,
			h.quantity,
			h.purchase_price,
			h.current_price
		FROM %s h
		JOIN %s p ON h.portfolio_id = p.portfolio_id
		WHERE p.user_id = @user_id
		ORDER BY p.portfolio_name, h.symbol
	`, tableRef(client.Project(), dataset, "holdings"), tableRef(client.Project(), dataset, "portfolios")))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: ownerID}}

	return readRows[HoldingRow](ctx, q, "ListHoldings")
}
