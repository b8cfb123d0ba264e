package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/app"
	"github.com/dvloznov/finance-analytics/internal/insights"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/report"
	"github.com/dvloznov/finance-analytics/internal/store"
)

var commands = []subcommands.Command{
	&subscriptionsCmd{},
	&summaryCmd{},
	&cashFlowCmd{},
	&forecastCmd{},
	&equityCmd{},
	&reportCmd{},
}

// run opens the source, hands the store to fn and maps the outcome to an
// exit status.
func run(ctx context.Context, src *source, fn func(ctx context.Context, st store.Store) error) subcommands.ExitStatus {
	st, err := src.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer st.Close()

	ctx = logger.WithContext(ctx, src.log)
	if err := fn(ctx, st); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if analytics.IsValidationError(err) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type subscriptionsCmd struct {
	src    source
	months int
}

func (*subscriptionsCmd) Name() string     { return "subscriptions" }
func (*subscriptionsCmd) Synopsis() string { return "detect recurring charges" }
func (*subscriptionsCmd) Usage() string {
	return `cli subscriptions [-f <ledger.json>] [-owner <id>] [-months n]

  Detects subscriptions among the expenses of the last n months.
`
}

func (c *subscriptionsCmd) SetFlags(f *flag.FlagSet) {
	c.src.setFlags(f)
	f.IntVar(&c.months, "months", analytics.DefaultLookbackMonths, "Lookback window in months (max 24)")
}

func (c *subscriptionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.src, func(ctx context.Context, st store.Store) error {
		res, err := c.src.service(st).Subscriptions(ctx, c.src.owner, c.months)
		if err != nil {
			return err
		}
		return c.src.print(res, func() string {
			return c.src.renderer().Subscriptions(res.Subscriptions, res.Totals)
		})
	})
}

type summaryCmd struct {
	src        source
	start, end string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "summarize income and spending over a period" }
func (*summaryCmd) Usage() string {
	return `cli summary [-f <ledger.json>] [-owner <id>] [-start YYYY-MM-DD] [-end YYYY-MM-DD]

  Totals income, expenses and per-category figures. Defaults to the current month.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.src.setFlags(f)
	f.StringVar(&c.start, "start", "", "Period start (defaults to the first of the month)")
	f.StringVar(&c.end, "end", "", "Period end (defaults to the end of the month)")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.src, func(ctx context.Context, st store.Store) error {
		s, err := c.src.service(st).Summary(ctx, c.src.owner, c.start, c.end)
		if err != nil {
			return err
		}
		return c.src.print(s, func() string { return c.src.renderer().Summary(*s) })
	})
}

type cashFlowCmd struct {
	src    source
	months int
}

func (*cashFlowCmd) Name() string     { return "cashflow" }
func (*cashFlowCmd) Synopsis() string { return "show monthly income and expenses" }
func (*cashFlowCmd) Usage() string {
	return `cli cashflow [-f <ledger.json>] [-owner <id>] [-months n]

  Prints one row per calendar month, ending with the current one.
`
}

func (c *cashFlowCmd) SetFlags(f *flag.FlagSet) {
	c.src.setFlags(f)
	f.IntVar(&c.months, "months", analytics.DefaultLookbackMonths, "Number of months (max 24)")
}

func (c *cashFlowCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.src, func(ctx context.Context, st store.Store) error {
		buckets, err := c.src.service(st).CashFlow(ctx, c.src.owner, c.months)
		if err != nil {
			return err
		}
		return c.src.print(buckets, func() string { return c.src.renderer().CashFlow(buckets) })
	})
}

type forecastCmd struct {
	src     source
	horizon int
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "project income and expenses forward" }
func (*forecastCmd) Usage() string {
	return `cli forecast [-f <ledger.json>] [-owner <id>] [-months n]

  Fits a linear trend to recent months and projects the next n.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	c.src.setFlags(f)
	f.IntVar(&c.horizon, "months", analytics.DefaultForecastHorizon, "Months to project (max 12)")
}

func (c *forecastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.src, func(ctx context.Context, st store.Store) error {
		res, err := c.src.service(st).Forecast(ctx, c.src.owner, c.horizon)
		if err != nil {
			return err
		}
		return c.src.print(res, func() string { return c.src.renderer().Forecast(*res) })
	})
}

type equityCmd struct {
	src source
}

func (*equityCmd) Name() string     { return "equity" }
func (*equityCmd) Synopsis() string { return "compute net worth from account and asset snapshots" }
func (*equityCmd) Usage() string {
	return `cli equity [-f <ledger.json>] [-owner <id>]

  Combines accounts, liabilities, properties and holdings into net worth.
`
}

func (c *equityCmd) SetFlags(f *flag.FlagSet) { c.src.setFlags(f) }

func (c *equityCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.src, func(ctx context.Context, st store.Store) error {
		e, err := c.src.service(st).Equity(ctx, c.src.owner)
		if err != nil {
			return err
		}
		return c.src.print(e, func() string { return c.src.renderer().Equity(*e) })
	})
}

type reportCmd struct {
	src        source
	start, end string
	lookback   int
	cashFlow   int
	horizon    int
	narrate    bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "generate a full analytics report" }
func (*reportCmd) Usage() string {
	return `cli report [-f <ledger.json>] [-owner <id>] [-narrate] [-start ...] [-end ...]

  Runs every analysis and prints the combined report. With the configured
  store the report is also archived and recorded.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.src.setFlags(f)
	f.StringVar(&c.start, "start", "", "Summary period start (defaults to the current month)")
	f.StringVar(&c.end, "end", "", "Summary period end")
	f.IntVar(&c.lookback, "lookback", analytics.DefaultLookbackMonths, "Subscription lookback in months")
	f.IntVar(&c.cashFlow, "cashflow-months", analytics.DefaultLookbackMonths, "Cash flow months")
	f.IntVar(&c.horizon, "horizon", analytics.DefaultForecastHorizon, "Forecast horizon in months")
	f.BoolVar(&c.narrate, "narrate", false, "Ask Gemini for a narrative (needs GEMINI_MODEL)")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.src, func(ctx context.Context, st store.Store) error {
		opts := []report.Option{report.WithLogger(c.src.log)}
		if c.src.cfg != nil {
			opts = app.GeneratorOptions(ctx, c.src.cfg, app.OpenStorage(ctx, c.src.cfg, c.src.log), c.src.log)
		} else if model := os.Getenv("GEMINI_MODEL"); c.narrate && model != "" {
			narrator, err := insights.NewGeminiNarrator(ctx, model)
			if err != nil {
				return err
			}
			opts = append(opts, report.WithNarrator(narrator))
		}

		doc, err := report.NewGenerator(st, analytics.SystemClock, opts...).Generate(ctx, report.Request{
			OwnerID:        c.src.owner,
			Start:          c.start,
			End:            c.end,
			LookbackMonths: c.lookback,
			CashFlowMonths: c.cashFlow,
			Horizon:        c.horizon,
			Narrate:        c.narrate,
		})
		if err != nil {
			return err
		}
		if doc.URI != "" {
			fmt.Fprintf(os.Stderr, "Archived to %s\n", doc.URI)
		}
		return c.src.print(doc, func() string { return c.src.renderer().Report(doc) })
	})
}
