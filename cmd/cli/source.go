package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/app"
	"github.com/dvloznov/finance-analytics/internal/config"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/render"
	"github.com/dvloznov/finance-analytics/internal/service"
	"github.com/dvloznov/finance-analytics/internal/store"
	"github.com/dvloznov/finance-analytics/internal/store/jsonfile"
)

// source holds the flags every analytics command shares: where the data
// comes from and how results are printed.
type source struct {
	file     string
	owner    string
	format   string
	currency string
	verbose  bool

	out io.Writer
	log zerolog.Logger
	cfg *config.Config
}

func (s *source) setFlags(f *flag.FlagSet) {
	f.StringVar(&s.file, "f", "", "JSON ledger file to read instead of the configured store")
	f.StringVar(&s.owner, "owner", os.Getenv("OWNER_ID"), "Owner whose data is analysed (or set OWNER_ID env)")
	f.StringVar(&s.format, "format", "md", "Output format: md or json")
	f.StringVar(&s.currency, "currency", render.DefaultCurrency, "ISO currency code used for display")
	f.BoolVar(&s.verbose, "v", false, "Log debug output to stderr")
}

// open validates the flags and opens the selected store. The configuration
// is only loaded when no ledger file is given.
func (s *source) open(ctx context.Context) (store.Store, error) {
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.format != "md" && s.format != "json" {
		return nil, fmt.Errorf("unknown format %q, want md or json", s.format)
	}

	level := "warn"
	if s.verbose {
		level = "debug"
	}
	s.log = logger.NewWithWriter(os.Stderr).Level(logger.ParseLevel(level))

	if s.file != "" {
		if s.owner == "" {
			s.owner = "local"
		}
		st, err := jsonfile.Load(s.file)
		if err != nil {
			return nil, err
		}
		return st, nil
	}

	if s.owner == "" {
		return nil, fmt.Errorf("-owner is required when reading from the configured store")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return app.OpenStore(ctx, cfg, s.log)
}

func (s *source) service(st store.Store) *service.Analytics {
	return service.New(st, analytics.SystemClock, s.log)
}

func (s *source) renderer() render.Renderer {
	return render.Renderer{Currency: s.currency}
}

// print writes v as indented JSON or the Markdown produced by markdown.
func (s *source) print(v interface{}, markdown func() string) error {
	if s.format == "json" {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(s.out, markdown())
	return err
}
