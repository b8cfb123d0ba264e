package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-analytics/internal/jobs"
)

const publishTimeout = 30 * time.Second

// ReportJob enqueues one report job per owner each time it runs.
type ReportJob struct {
	Publisher jobs.Publisher
	Owners    []string
	Narrate   bool
}

// Name implements Job.
func (j *ReportJob) Name() string { return "generate_reports" }

// Run publishes a job for every owner and reports every failed publish.
func (j *ReportJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	var errs []error
	for _, owner := range j.Owners {
		job := &jobs.GenerateReportJob{OwnerID: owner, Narrate: j.Narrate}
		if err := j.Publisher.PublishGenerateReport(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
		}
	}
	return errors.Join(errs...)
}
