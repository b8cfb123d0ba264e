package render

import (
	"bytes"
	"fmt"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/report"
)

// Renderer writes analytics results as Markdown in one currency.
type Renderer struct {
	Currency string
}

func (r Renderer) money(v float64) string { return Money(v, r.Currency) }

// Subscriptions renders detected subscriptions and their combined cost.
func (r Renderer) Subscriptions(subs []analytics.DetectedSubscription, totals analytics.SubscriptionTotals) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	r.subscriptions(doc, subs, totals)
	return doc.String()
}

func (r Renderer) subscriptions(doc *md.Markdown, subs []analytics.DetectedSubscription, totals analytics.SubscriptionTotals) {
	doc.H2("Subscriptions")
	if len(subs) == 0 {
		doc.PlainText("No recurring charges detected.")
		return
	}

	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			s.Name,
			string(s.Frequency),
			r.money(s.Amount),
			r.money(s.MonthlyCost),
			strconv.Itoa(s.Occurrences),
			s.LastDate.String(),
			s.NextExpectedDate.String(),
		})
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignLeft, md.AlignLeft,
		},
		Header: []string{"Name", "Frequency", "Amount", "Monthly", "Seen", "Last", "Next"},
		Rows:   rows,
	})
	doc.PlainText(fmt.Sprintf("%d subscriptions, %s per month, %s per year.",
		totals.Count, r.money(totals.MonthlyTotal), r.money(totals.YearlyTotal)))
}

// Summary renders a period summary with its category breakdown.
func (r Renderer) Summary(s analytics.PeriodSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	r.summary(doc, s)
	return doc.String()
}

func (r Renderer) summary(doc *md.Markdown, s analytics.PeriodSummary) {
	doc.H2(fmt.Sprintf("Summary %s to %s", s.Period.Start, s.Period.End))
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Net"), md.Bold(r.money(s.Net))},
		Rows: [][]string{
			{"Income", r.money(s.TotalIncome)},
			{"Expenses", r.money(s.TotalExpenses)},
			{"Savings rate", Percent(s.SavingsRate)},
			{"Transactions", strconv.Itoa(s.TransactionCount)},
		},
	})

	if len(s.ByCategory) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		budget := "-"
		if c.BudgetLimit > 0 {
			budget = Percent(c.BudgetUsedPercent)
		}
		rows = append(rows, []string{
			c.Name,
			r.money(c.Income),
			r.money(c.Expenses),
			strconv.Itoa(c.TransactionCount),
			budget,
		})
	}
	doc.H2("By category")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Category", "Income", "Expenses", "Count", "Budget used"},
		Rows:      rows,
	})
}

// CashFlow renders monthly income, expenses and net.
func (r Renderer) CashFlow(buckets []analytics.MonthlyBucket) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	r.cashFlow(doc, buckets)
	return doc.String()
}

func (r Renderer) cashFlow(doc *md.Markdown, buckets []analytics.MonthlyBucket) {
	doc.H2("Cash flow")
	if len(buckets) == 0 {
		doc.PlainText("No transactions in the window.")
		return
	}
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.Month, r.money(b.Income), r.money(b.Expenses), r.money(b.Net), strconv.Itoa(b.TransactionCount)})
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Month", "Income", "Expenses", "Net", "Count"},
		Rows:      rows,
	})
}

// Forecast renders projected months and the trends behind them.
func (r Renderer) Forecast(f analytics.ForecastResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	r.forecast(doc, f)
	return doc.String()
}

func (r Renderer) forecast(doc *md.Markdown, f analytics.ForecastResult) {
	doc.H2("Forecast")
	if len(f.Forecast) == 0 {
		doc.PlainText("Not enough history to forecast.")
		return
	}
	rows := make([][]string, 0, len(f.Forecast))
	for _, p := range f.Forecast {
		rows = append(rows, []string{p.Month, r.money(p.ProjectedIncome), r.money(p.ProjectedExpenses), r.money(p.ProjectedNet)})
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Month", "Income", "Expenses", "Net"},
		Rows:      rows,
	})
	doc.PlainText(fmt.Sprintf("Based on %d months: income %s (avg %s), expenses %s (avg %s).",
		f.HistoryMonths, f.IncomeTrend, r.money(f.AvgIncome), f.ExpenseTrend, r.money(f.AvgExpenses)))
}

// Equity renders net worth with its breakdowns.
func (r Renderer) Equity(e analytics.EquitySnapshot) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	r.equity(doc, e)
	return doc.String()
}

func (r Renderer) equity(doc *md.Markdown, e analytics.EquitySnapshot) {
	doc.H2("Net worth")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Net worth"), md.Bold(r.money(e.NetWorth))},
		Rows: [][]string{
			{"Assets", r.money(e.TotalAssets)},
			{"Liabilities", r.money(e.TotalLiabilities)},
			{"Debt to assets", strconv.FormatFloat(e.DebtToAssetRatio, 'f', 4, 64)},
		},
	})

	if len(e.ByType) > 0 {
		doc.H2("By type")
		doc.Table(r.breakdownTable("Type", e.ByType))
	}
	if len(e.ByInstitution) > 0 {
		doc.H2("By institution")
		doc.Table(r.breakdownTable("Institution", e.ByInstitution))
	}
	if len(e.Portfolios) > 0 {
		rows := make([][]string, 0, len(e.Portfolios))
		for _, p := range e.Portfolios {
			rows = append(rows, []string{p.Name, r.money(p.CostBasis), r.money(p.CurrentValue), r.money(p.UnrealizedGain), Percent(p.GainPercent)})
		}
		doc.H2("Portfolios")
		doc.Table(md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Portfolio", "Cost", "Value", "Gain", "Gain %"},
			Rows:      rows,
		})
	}
}

func (r Renderer) breakdownTable(title string, items []analytics.EquityBreakdown) md.TableSet {
	rows := make([][]string, 0, len(items))
	for _, b := range items {
		rows = append(rows, []string{b.Key, r.money(b.Assets), r.money(b.Liabilities), r.money(b.Net)})
	}
	return md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{title, "Assets", "Liabilities", "Net"},
		Rows:      rows,
	}
}

// Report renders every section of a generated report.
func (r Renderer) Report(d *report.Document) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Financial report %s", d.GeneratedAt.Format("2006-01-02")))
	if d.Narrative != nil {
		doc.PlainText(md.Bold(d.Narrative.Headline))
		if len(d.Narrative.Highlights) > 0 {
			doc.OrderedList(d.Narrative.Highlights...)
		}
	}
	r.summary(doc, d.Summary)
	r.subscriptions(doc, d.Subscriptions, d.SubscriptionTotals)
	r.cashFlow(doc, d.CashFlow)
	r.forecast(doc, d.Forecast)
	r.equity(doc, d.Equity)
	if d.Narrative != nil && len(d.Narrative.Suggestions) > 0 {
		doc.H2("Suggestions")
		doc.OrderedList(d.Narrative.Suggestions...)
	}
	return doc.String()
}
