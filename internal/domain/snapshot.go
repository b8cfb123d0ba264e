package domain

import (
	"github.com/shopspring/decimal"
)

// AccountSnapshot is the latest balance of a cash or investment account.
type AccountSnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"` // e.g. CHECKING, SAVINGS, BROKERAGE
	Institution string          `json:"institution,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
}

// LiabilitySnapshot is the latest outstanding balance of a debt.
// Balance is a positive amount owed.
type LiabilitySnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"` // e.g. CREDIT_CARD, LOAN
	Institution string          `json:"institution,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
}

// MortgageSnapshot is a loan secured against a property.
type MortgageSnapshot struct {
	ID       string          `json:"id"`
	Lender   string          `json:"lender,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"is_active"`
}

// PropertySnapshot is a real-estate asset with its mortgages.
type PropertySnapshot struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Type         string             `json:"type"` // e.g. RESIDENCE, RENTAL
	CurrentValue *decimal.Decimal   `json:"current_value,omitempty"` // nil when never valued
	Mortgages    []MortgageSnapshot `json:"mortgages,omitempty"`
}

// HoldingSnapshot is a position inside an investment portfolio.
type HoldingSnapshot struct {
	ID            string           `json:"id"`
	PortfolioID   string           `json:"portfolio_id"`
	PortfolioName string           `json:"portfolio_name"`
	Symbol        string           `json:"symbol"`
	Type          string           `json:"type"` // e.g. STOCK, ETF, CRYPTO
	Quantity      decimal.Decimal  `json:"quantity"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"` // nil when no quote
}
