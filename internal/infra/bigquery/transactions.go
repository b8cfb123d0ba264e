package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	UserID    string `bigquery:"user_id"`    // NULLABLE
	AccountID string `bigquery:"account_id"` // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC, signed
	Currency string   `bigquery:"currency"` // REQUIRED

	RawDescription string              `bigquery:"raw_description"` // REQUIRED
	MerchantName   bigquery.NullString `bigquery:"merchant_name"`   // NULLABLE
	CategoryID     bigquery.NullInt64  `bigquery:"category_id"`     // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
}

// ToDomain converts the row. The calendar date becomes midnight UTC.
func (r *TransactionRow) ToDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:          r.TransactionID,
		OwnerID:     r.UserID,
		AccountID:   r.AccountID,
		Date:        r.TransactionDate.In(time.UTC),
		Amount:      ratToDecimal(r.Amount),
		Description: r.RawDescription,
	}
	if r.MerchantName.Valid {
		tx.Merchant = r.MerchantName.StringVal
	}
	if r.CategoryID.Valid {
		tx.CategoryID = r.CategoryID.Int64
	}
	return tx
}
