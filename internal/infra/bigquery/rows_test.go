package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

func TestRatToDecimal(t *testing.T) {
	assert.True(t, ratToDecimal(nil).IsZero())
	assert.Nil(t, ratToDecimalPtr(nil))

	r := big.NewRat(-1599, 100)
	assert.Equal(t, "-15.99", ratToDecimal(r).String())

	third := big.NewRat(1, 3)
	assert.Equal(t, "0.333333333", ratToDecimal(third).String())
}

func TestDecimalToRat(t *testing.T) {
	r := decimalToRat(decimal.RequireFromString("10.005"))
	assert.Equal(t, big.NewRat(2001, 200).String(), r.String())
}

func TestTableRef(t *testing.T) {
	assert.Equal(t, "`proj.finance.transactions`", tableRef("proj", "finance", "transactions"))
}

func TestTransactionRow_ToDomain(t *testing.T) {
	row := TransactionRow{
		TransactionID:   "tx-1",
		UserID:          "owner",
		TransactionDate: civil.Date{Year: 2024, Month: time.March, Day: 1},
		Amount:          big.NewRat(-1599, 100),
		RawDescription:  "NETFLIX.COM",
		MerchantName:    bigquery.NullString{StringVal: "Netflix", Valid: true},
		CategoryID:      bigquery.NullInt64{Int64: 4, Valid: true},
	}

	tx := row.ToDomain()
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), tx.Date)
	assert.Equal(t, "-15.99", tx.Amount.String())
	assert.Equal(t, "Netflix", tx.Merchant)
	assert.Equal(t, int64(4), tx.CategoryID)
}

func TestSubscriptionRow_RoundTrip(t *testing.T) {
	sub := &domain.Subscription{
		ID:              "s1",
		OwnerID:         "owner",
		Name:            "Netflix",
		NormalizedKey:   "netflix netflix.com",
		Amount:          decimal.RequireFromString("15.99"),
		Frequency:       "monthly",
		NextBillingDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
	}

	row := SubscriptionRowFromDomain(sub)
	assert.False(t, row.CategoryID.Valid)
	require.True(t, row.NextBillingDate.Valid)

	back := row.ToDomain()
	assert.Equal(t, sub.NormalizedKey, back.NormalizedKey)
	assert.True(t, sub.Amount.Equal(back.Amount))
	assert.Equal(t, sub.NextBillingDate, back.NextBillingDate)
}

func TestHoldingRow_MissingPrice(t *testing.T) {
	row := HoldingRow{HoldingID: "h", Quantity: big.NewRat(3, 1), PurchasePrice: big.NewRat(10, 1)}
	h := row.ToDomain()
	assert.Nil(t, h.CurrentPrice)
	assert.Equal(t, "3", h.Quantity.String())
}
