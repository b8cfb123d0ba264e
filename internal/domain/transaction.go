package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one dated monetary record as read from the ledger store.
// The analytics engine treats it as immutable input.
// Sign convention: Amount > 0 is money IN, Amount < 0 is money OUT.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id,omitempty"`
	AccountID   string          `json:"account_id,omitempty"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant,omitempty"`    // empty when unknown
	CategoryID  int64           `json:"category_id,omitempty"` // 0 means uncategorized
}

// IsIncome reports whether the transaction is an inflow.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// Category is the display metadata of a transaction category.
type Category struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Icon        string          `json:"icon,omitempty"`
	Color       string          `json:"color,omitempty"`
	IsIncome    bool            `json:"is_income"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
}

// Subscription is a user-confirmed recurring payment. Unlike a detection
// result it has its own lifecycle in the subscription store.
type Subscription struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Name            string          `json:"name"`
	NormalizedKey   string          `json:"normalized_key"`
	Amount          decimal.Decimal `json:"amount"`
	Frequency       string          `json:"frequency"`
	CategoryID      int64           `json:"category_id,omitempty"`
	NextBillingDate time.Time       `json:"next_billing_date"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}
