package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-analytics/internal/domain"
)

const (
	otherType      = "OTHER"
	propertyType   = "PROPERTY"
	investmentType = "INVESTMENT"
)

// EquityBreakdown is the asset and liability total under one grouping key.
type EquityBreakdown struct {
	Key         string  `json:"key"`
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Net         float64 `json:"net"`
}

// PropertyEquity is a property's value net of its active mortgages.
type PropertyEquity struct {
	PropertyID      string  `json:"property_id"`
	Name            string  `json:"name"`
	CurrentValue    float64 `json:"current_value"`
	MortgageBalance float64 `json:"mortgage_balance"`
	Equity          float64 `json:"equity"`
	HasValuation    bool    `json:"has_valuation"`
}

// HoldingPerformance is the profit or loss on one position.
type HoldingPerformance struct {
	HoldingID      string  `json:"holding_id"`
	PortfolioID    string  `json:"portfolio_id"`
	Symbol         string  `json:"symbol"`
	CostBasis      float64 `json:"cost_basis"`
	CurrentValue   float64 `json:"current_value"`
	UnrealizedGain float64 `json:"unrealized_gain"`
	GainPercent    float64 `json:"gain_percent"`
	HasValuation   bool    `json:"has_valuation"`
}

// PortfolioTotal sums the holdings of one portfolio.
type PortfolioTotal struct {
	PortfolioID    string  `json:"portfolio_id"`
	Name           string  `json:"name"`
	HoldingCount   int     `json:"holding_count"`
	CostBasis      float64 `json:"cost_basis"`
	CurrentValue   float64 `json:"current_value"`
	UnrealizedGain float64 `json:"unrealized_gain"`
	GainPercent    float64 `json:"gain_percent"`
}

// EquitySnapshot is the net-worth picture of one owner.
type EquitySnapshot struct {
	TotalAssets      float64              `json:"total_assets"`
	TotalLiabilities float64              `json:"total_liabilities"`
	NetWorth         float64              `json:"net_worth"`
	DebtToAssetRatio float64              `json:"debt_to_asset_ratio"`
	ByType           []EquityBreakdown    `json:"by_type"`
	ByInstitution    []EquityBreakdown    `json:"by_institution"`
	Properties       []PropertyEquity     `json:"properties"`
	Holdings         []HoldingPerformance `json:"holdings"`
	Portfolios       []PortfolioTotal     `json:"portfolios"`
}

type breakdownAcc struct {
	assets, liabilities decimal.Decimal
}

// ledger accumulates totals and both breakdowns in full precision.
type ledger struct {
	assets, liabilities decimal.Decimal
	byType              map[string]*breakdownAcc
	byInstitution       map[string]*breakdownAcc
}

func newLedger() *ledger {
	return &ledger{
		byType:        make(map[string]*breakdownAcc),
		byInstitution: make(map[string]*breakdownAcc),
	}
}

func (l *ledger) bucket(m map[string]*breakdownAcc, key string) *breakdownAcc {
	acc, ok := m[key]
	if !ok {
		acc = &breakdownAcc{}
		m[key] = acc
	}
	return acc
}

func (l *ledger) asset(typ, institution string, v decimal.Decimal) {
	l.assets = l.assets.Add(v)
	t := l.bucket(l.byType, typ)
	t.assets = t.assets.Add(v)
	i := l.bucket(l.byInstitution, institution)
	i.assets = i.assets.Add(v)
}

func (l *ledger) liability(typ, institution string, v decimal.Decimal) {
	l.liabilities = l.liabilities.Add(v)
	t := l.bucket(l.byType, typ)
	t.liabilities = t.liabilities.Add(v)
	i := l.bucket(l.byInstitution, institution)
	i.liabilities = i.liabilities.Add(v)
}

func breakdowns(m map[string]*breakdownAcc) []EquityBreakdown {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]EquityBreakdown, 0, len(keys))
	for _, k := range keys {
		acc := m[k]
		out = append(out, EquityBreakdown{
			Key:         k,
			Assets:      cents(acc.assets),
			Liabilities: cents(acc.liabilities),
			Net:         cents(acc.assets.Sub(acc.liabilities)),
		})
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ComputeEquity combines the latest snapshots of one owner into net worth.
// Properties and holdings without a valuation contribute zero.
func ComputeEquity(
	accounts []domain.AccountSnapshot,
	liabilities []domain.LiabilitySnapshot,
	properties []domain.PropertySnapshot,
	holdings []domain.HoldingSnapshot,
) EquitySnapshot {
	l := newLedger()

	for _, a := range accounts {
		l.asset(orDefault(a.Type, otherType), orDefault(a.Institution, a.Name), a.Balance)
	}
	for _, d := range liabilities {
		l.liability(orDefault(d.Type, otherType), orDefault(d.Institution, d.Name), d.Balance)
	}

	props := make([]PropertyEquity, 0, len(properties))
	for _, p := range properties {
		value, mortgages, equity := propertyEquity(p)
		l.asset(orDefault(p.Type, propertyType), p.Name, equity)
		props = append(props, PropertyEquity{
			PropertyID:      p.ID,
			Name:            p.Name,
			CurrentValue:    cents(value),
			MortgageBalance: cents(mortgages),
			Equity:          cents(equity),
			HasValuation:    p.CurrentValue != nil,
		})
	}

	perf := make([]HoldingPerformance, 0, len(holdings))
	portfolios := make(map[string]*portfolioAcc)
	var portfolioOrder []string
	for _, h := range holdings {
		cost, value := holdingValues(h)
		l.asset(orDefault(h.Type, investmentType), h.PortfolioName, value)
		perf = append(perf, HoldingGain(h))

		acc, ok := portfolios[h.PortfolioID]
		if !ok {
			acc = &portfolioAcc{id: h.PortfolioID, name: h.PortfolioName}
			portfolios[h.PortfolioID] = acc
			portfolioOrder = append(portfolioOrder, h.PortfolioID)
		}
		acc.count++
		acc.cost = acc.cost.Add(cost)
		acc.value = acc.value.Add(value)
	}

	totals := make([]PortfolioTotal, 0, len(portfolioOrder))
	for _, id := range portfolioOrder {
		totals = append(totals, portfolios[id].total())
	}

	return EquitySnapshot{
		TotalAssets:      cents(l.assets),
		TotalLiabilities: cents(l.liabilities),
		NetWorth:         cents(l.assets.Sub(l.liabilities)),
		DebtToAssetRatio: safeDiv(l.liabilities, l.assets).Round(4).InexactFloat64(),
		ByType:           breakdowns(l.byType),
		ByInstitution:    breakdowns(l.byInstitution),
		Properties:       props,
		Holdings:         perf,
		Portfolios:       totals,
	}
}

// propertyEquity returns the valuation, active mortgage total and equity of
// p. An unvalued property has zero equity whatever it owes.
func propertyEquity(p domain.PropertySnapshot) (value, mortgages, equity decimal.Decimal) {
	for _, m := range p.Mortgages {
		if m.IsActive {
			mortgages = mortgages.Add(m.Balance)
		}
	}
	if p.CurrentValue == nil {
		return decimal.Zero, mortgages, decimal.Zero
	}
	value = *p.CurrentValue
	return value, mortgages, value.Sub(mortgages)
}

func holdingValues(h domain.HoldingSnapshot) (cost, value decimal.Decimal) {
	cost = h.PurchasePrice.Mul(h.Quantity)
	if h.CurrentPrice != nil {
		value = h.CurrentPrice.Mul(h.Quantity)
	}
	return cost, value
}

// gain returns the unrealized gain and its percentage of cost, both zero
// when there is no positive cost basis.
func gain(cost, value decimal.Decimal) (decimal.Decimal, float64) {
	if !cost.IsPositive() {
		return decimal.Zero, 0
	}
	g := value.Sub(cost)
	return g, percent(g, cost)
}

// HoldingGain computes the profit or loss on h.
func HoldingGain(h domain.HoldingSnapshot) HoldingPerformance {
	cost, value := holdingValues(h)
	g, pct := gain(cost, value)
	return HoldingPerformance{
		HoldingID:      h.ID,
		PortfolioID:    h.PortfolioID,
		Symbol:         h.Symbol,
		CostBasis:      cents(cost),
		CurrentValue:   cents(value),
		UnrealizedGain: cents(g),
		GainPercent:    pct,
		HasValuation:   h.CurrentPrice != nil,
	}
}

type portfolioAcc struct {
	id, name    string
	count       int
	cost, value decimal.Decimal
}

func (p *portfolioAcc) total() PortfolioTotal {
	g, pct := gain(p.cost, p.value)
	return PortfolioTotal{
		PortfolioID:    p.id,
		Name:           p.name,
		HoldingCount:   p.count,
		CostBasis:      cents(p.cost),
		CurrentValue:   cents(p.value),
		UnrealizedGain: cents(g),
		GainPercent:    pct,
	}
}
