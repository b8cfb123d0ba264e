package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

// AccountBalanceRow is an account joined with its most recent balance.
type AccountBalanceRow struct {
	AccountID       string              `bigquery:"account_id"`
	AccountName     string              `bigquery:"account_name"`
	AccountType     string              `bigquery:"account_type"`
	InstitutionName bigquery.NullString `bigquery:"institution_name"`
	Balance         *big.Rat            `bigquery:"balance"` // NULL when no balance was recorded
}

func (r *AccountBalanceRow) ToDomain() domain.AccountSnapshot {
	return domain.AccountSnapshot{
		ID:          r.AccountID,
		Name:        r.AccountName,
		Type:        r.AccountType,
		Institution: r.InstitutionName.StringVal,
		Balance:     ratToDecimal(r.Balance),
	}
}

// LiabilityBalanceRow is a liability joined with its most recent balance.
type LiabilityBalanceRow struct {
	LiabilityID     string              `bigquery:"liability_id"`
	LiabilityName   string              `bigquery:"liability_name"`
	LiabilityType   string              `bigquery:"liability_type"`
	InstitutionName bigquery.NullString `bigquery:"institution_name"`
	Balance         *big.Rat            `bigquery:"balance"`
}

func (r *LiabilityBalanceRow) ToDomain() domain.LiabilitySnapshot {
	return domain.LiabilitySnapshot{
		ID:          r.LiabilityID,
		Name:        r.LiabilityName,
		Type:        r.LiabilityType,
		Institution: r.InstitutionName.StringVal,
		Balance:     ratToDecimal(r.Balance),
	}
}

type PropertyRow struct {
	PropertyID   string   `bigquery:"property_id"`
	PropertyName string   `bigquery:"property_name"`
	PropertyType string   `bigquery:"property_type"`
	CurrentValue *big.Rat `bigquery:"current_value"` // NULLABLE NUMERIC
}

type MortgageRow struct {
	MortgageID string              `bigquery:"mortgage_id"`
	PropertyID string              `bigquery:"property_id"`
	Lender     bigquery.NullString `bigquery:"lender"`
	Balance    *big.Rat            `bigquery:"balance"`
	IsActive   bigquery.NullBool   `bigquery:"is_active"`
}

func (r *MortgageRow) ToDomain() domain.MortgageSnapshot {
	return domain.MortgageSnapshot{
		ID:       r.MortgageID,
		Lender:   r.Lender.StringVal,
		Balance:  ratToDecimal(r.Balance),
		IsActive: r.IsActive.Valid && r.IsActive.Bool,
	}
}

// HoldingRow is a holding joined with its portfolio name.
type HoldingRow struct {
	HoldingID     string   `bigquery:"holding_id"`
	PortfolioID   string   `bigquery:"portfolio_id"`
	PortfolioName string   `bigquery:"portfolio_name"`
	Symbol        string   `bigquery:"symbol"`
	HoldingType   string   `bigquery:"holding_type"`
	Quantity      *big.Rat `bigquery:"quantity"`
	PurchasePrice *big.Rat `bigquery:"purchase_price"`
	CurrentPrice  *big.Rat `bigquery:"current_price"` // NULLABLE NUMERIC
}

func (r *HoldingRow) ToDomain() domain.HoldingSnapshot {
	return domain.HoldingSnapshot{
		ID:            r.HoldingID,
		PortfolioID:   r.PortfolioID,
		PortfolioName: r.PortfolioName,
		Symbol:        r.Symbol,
		Type:          r.HoldingType,
		Quantity:      ratToDecimal(r.Quantity),
		PurchasePrice: ratToDecimal(r.PurchasePrice),
		CurrentPrice:  ratToDecimalPtr(r.CurrentPrice),
	}
}
