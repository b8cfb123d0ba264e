package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-analytics/internal/analytics"
	"github.com/dvloznov/finance-analytics/internal/gcs"
	"github.com/dvloznov/finance-analytics/internal/insights"
	"github.com/dvloznov/finance-analytics/internal/jobs"
	"github.com/dvloznov/finance-analytics/internal/logger"
	"github.com/dvloznov/finance-analytics/internal/store"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially and stops at the
// first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Defaults are applied to request fields left at zero.
type Defaults struct {
	LookbackMonths int
	CashFlowMonths int
	Horizon        int
}

// Generator builds reports from a store.
type Generator struct {
	store    store.Store
	storage  gcs.StorageService
	narrator insights.Narrator
	clock    analytics.Clock
	defaults Defaults
	log      zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithStorage archives every report to storage.
func WithStorage(s gcs.StorageService) Option {
	return func(g *Generator) { g.storage = s }
}

// WithNarrator enables narratives for requests that ask for one.
func WithNarrator(n insights.Narrator) Option {
	return func(g *Generator) { g.narrator = n }
}

// WithDefaults sets the windows used when a request leaves them unset.
func WithDefaults(d Defaults) Option {
	return func(g *Generator) { g.defaults = d }
}

// WithLogger sets the logger used for report events.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) { g.log = logger.WithComponent(log, "report_generator") }
}

// NewGenerator creates a Generator. A nil clock uses the system clock.
func NewGenerator(st store.Store, clock analytics.Clock, opts ...Option) *Generator {
	if clock == nil {
		clock = analytics.SystemClock
	}
	g := &Generator{
		store: st,
		clock: clock,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Pipeline returns the report steps in execution order. Archiving is left
// out when no storage is configured.
func (g *Generator) Pipeline() *Pipeline {
	steps := []Step{
		&ResolvePeriodStep{},
		&LoadTransactionsStep{Repo: g.store},
		&LoadCategoriesStep{Repo: g.store},
		&LoadSnapshotsStep{Repo: g.store},
		&DetectSubscriptionsStep{},
		&SummarizePeriodStep{},
		&CashFlowStep{},
		&ForecastStep{},
		&EquityStep{},
		&NarrateStep{Narrator: g.narrator},
	}
	if g.storage != nil {
		steps = append(steps, &ArchiveStep{Storage: g.storage})
	}
	steps = append(steps, &RecordStep{Repo: g.store})
	return NewPipeline(steps...)
}

func (g *Generator) withDefaults(req Request) Request {
	if req.LookbackMonths == 0 {
		req.LookbackMonths = g.defaults.LookbackMonths
	}
	if req.CashFlowMonths == 0 {
		req.CashFlowMonths = g.defaults.CashFlowMonths
	}
	if req.Horizon == 0 {
		req.Horizon = g.defaults.Horizon
	}
	return req
}

// Generate runs the pipeline for req and returns the finished document.
func (g *Generator) Generate(ctx context.Context, req Request) (*Document, error) {
	if req.OwnerID == "" {
		return nil, &analytics.ValidationError{Field: "owner_id", Reason: "is required"}
	}

	state := NewState(g.withDefaults(req), g.clock, uuid.New().String())
	log := g.log.With().Str("owner_id", req.OwnerID).Str("report_id", state.Document.ID).Logger()
	ctx = logger.WithContext(ctx, log)

	if err := g.Pipeline().Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("report generation failed")
		return nil, fmt.Errorf("Generate: %w", err)
	}

	log.Info().
		Int("transactions", len(state.Transactions)).
		Int("subscriptions", len(state.Document.Subscriptions)).
		Str("uri", state.Document.URI).
		Msg("report generated")
	return state.Document, nil
}

// HandleJob is a jobs.JobHandler that generates the report a job asks for
// and records the result on the job.
func (g *Generator) HandleJob(ctx context.Context, job jobs.Job) error {
	j, ok := job.(*jobs.GenerateReportJob)
	if !ok {
		return fmt.Errorf("HandleJob: unsupported job type %s", job.GetType())
	}

	doc, err := g.Generate(ctx, Request{
		OwnerID:        j.OwnerID,
		Start:          j.Start,
		End:            j.End,
		LookbackMonths: j.LookbackMonths,
		Horizon:        j.Horizon,
		Narrate:        j.Narrate,
	})
	if err != nil {
		return err
	}

	j.ReportID = doc.ID
	j.ReportURI = doc.URI
	return nil
}
