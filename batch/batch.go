// Package batch researches a grid of companies and metrics and pivots the
// results into a spreadsheet-shaped table.
package batch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/sweetpotato0/company-researcher/agents"
	"github.com/sweetpotato0/company-researcher/pkg/logging"
	"github.com/sweetpotato0/company-researcher/session"
	"github.com/sweetpotato0/company-researcher/workflow"
)

// DefaultConcurrency bounds how many (company, metric) pairs run at once.
const DefaultConcurrency = 8

// Result is the outcome of one (company, metric) research run. Err is set
// when the run failed; Metric may be nil even on success if extraction
// produced nothing.
type Result struct {
	Company  string
	MetricID string
	ThreadID string
	Metric   *agents.Metric
	Err      error
}

// Filler is the per-pair research entry point, satisfied by
// workflow.MetricEngine.
type Filler interface {
	Fill(ctx context.Context, threadID, company, metric string) (*session.State, error)
}

var _ Filler = (*workflow.MetricEngine)(nil)

// Driver fans a company/metric grid out over the workflow engine.
type Driver struct {
	filler      Filler
	concurrency int
	logger      *slog.Logger
}

// NewDriver creates a driver. Concurrency values below one fall back to the
// default.
func NewDriver(filler Filler, concurrency int) *Driver {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Driver{
		filler:      filler,
		concurrency: concurrency,
		logger:      logging.WithComponent("batch"),
	}
}

// Fill researches every (company, metric) pair. Each pair gets its own
// thread ID, failed pairs are recorded in their Result rather than aborting
// the batch, and the result order matches the input grid order.
func (d *Driver) Fill(ctx context.Context, companies, metrics []string) []Result {
	results := make([]Result, len(companies)*len(metrics))

	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup
	for i, company := range companies {
		for j, metric := range metrics {
			wg.Add(1)
			go func(idx int, company, metric string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				threadID := uuid.NewString()
				res := Result{Company: company, MetricID: metric, ThreadID: threadID}

				state, err := d.filler.Fill(ctx, threadID, company, metric)
				if err != nil {
					d.logger.Warn("pair failed",
						"company", company, "metric", metric, "error", err)
					res.Err = err
				} else {
					res.Metric = state.Metric
				}
				results[idx] = res
			}(i*len(metrics)+j, company, metric)
		}
	}
	wg.Wait()
	return results
}
