package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLedger writes a ledger with a monthly Netflix charge over the last
// three months and a salary this month.
func writeLedger(t *testing.T) string {
	t.Helper()
	now := time.Now()
	var txs []string
	for k := 3; k >= 1; k-- {
		d := now.AddDate(0, -k, 0).Format("2006-01-02")
		txs = append(txs, fmt.Sprintf(`{"date": %q, "amount": "-15.99", "description": "NETFLIX.COM", "merchant": "Netflix"}`, d))
	}
	txs = append(txs, fmt.Sprintf(`{"date": %q, "amount": "3000", "description": "SALARY"}`, now.Format("2006-01-02")))

	ledger := `{
  "transactions": [` + strings.Join(txs, ",") + `],
  "accounts": [{"id": "a1", "name": "Checking", "type": "CHECKING", "balance": "1000"}],
  "liabilities": [{"id": "l1", "name": "Visa", "type": "CREDIT_CARD", "balance": "250"}]
}`
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(ledger), 0644))
	return path
}

type cliCommand interface {
	subcommands.Command
	sourceFlags() *source
}

func (c *subscriptionsCmd) sourceFlags() *source { return &c.src }
func (c *summaryCmd) sourceFlags() *source       { return &c.src }
func (c *equityCmd) sourceFlags() *source        { return &c.src }
func (c *reportCmd) sourceFlags() *source        { return &c.src }

func execute(t *testing.T, c cliCommand, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	require.NoError(t, fs.Parse(args))

	var buf bytes.Buffer
	c.sourceFlags().out = &buf
	status := c.Execute(context.Background(), fs)
	return status, buf.String()
}

func TestSubscriptionsCmd(t *testing.T) {
	path := writeLedger(t)

	status, out := execute(t, &subscriptionsCmd{}, "-f", path, "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)

	var res struct {
		Subscriptions []struct {
			Name      string  `json:"name"`
			Amount    float64 `json:"amount"`
			Frequency string  `json:"frequency"`
		} `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Subscriptions, 1)
	assert.Equal(t, "Netflix", res.Subscriptions[0].Name)
	assert.Equal(t, "monthly", res.Subscriptions[0].Frequency)
	assert.Equal(t, 15.99, res.Subscriptions[0].Amount)

	status, out = execute(t, &subscriptionsCmd{}, "-f", path)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "$15.99")
}

func TestSummaryCmd(t *testing.T) {
	path := writeLedger(t)

	status, out := execute(t, &summaryCmd{}, "-f", path, "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, `"total_income": 3000`)

	status, _ = execute(t, &summaryCmd{}, "-f", path, "-start", "2024-13-01")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestEquityCmd(t *testing.T) {
	status, out := execute(t, &equityCmd{}, "-f", writeLedger(t), "-format", "json")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, `"net_worth": 750`)
}

func TestReportCmd(t *testing.T) {
	status, out := execute(t, &reportCmd{}, "-f", writeLedger(t), "-currency", "EUR")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "# Financial report")
	assert.Contains(t, out, "Netflix")
}

func TestSourceErrors(t *testing.T) {
	status, _ := execute(t, &equityCmd{}, "-f", writeLedger(t), "-format", "xml")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status, _ = execute(t, &equityCmd{}, "-f", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, subcommands.ExitUsageError, status)
}
