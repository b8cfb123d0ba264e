package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

type CategoryRow struct {
	CategoryID int64  `bigquery:"category_id"` // REQUIRED
	Name       string `bigquery:"name"`        // REQUIRED

	Icon  bigquery.NullString `bigquery:"icon"`  // NULLABLE
	Color bigquery.NullString `bigquery:"color"` // NULLABLE

	IsIncome    bigquery.NullBool `bigquery:"is_income"`    // NULLABLE
	BudgetLimit *big.Rat          `bigquery:"budget_limit"` // NULLABLE NUMERIC
	IsActive    bigquery.NullBool `bigquery:"is_active"`    // NULLABLE
}

func (r *CategoryRow) ToDomain() domain.Category {
	return domain.Category{
		ID:          r.CategoryID,
		Name:        r.Name,
		Icon:        r.Icon.StringVal,
		Color:       r.Color.StringVal,
		IsIncome:    r.IsIncome.Valid && r.IsIncome.Bool,
		BudgetLimit: ratToDecimal(r.BudgetLimit),
	}
}
