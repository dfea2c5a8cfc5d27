package workflow

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/company-researcher/agents"
	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/session"
)

// Extractor pulls a single structured metric out of the evidence.
type Extractor interface {
	Extract(ctx context.Context, question string, docs []document.Document) (agents.Metric, error)
}

// MetricEngine runs the research loop with metric extraction in place of
// free-form answer generation. It backs batch spreadsheet fills.
type MetricEngine struct {
	engine *Engine
}

// NewMetric creates a metric engine. The config's Generator field is not
// used; the extractor takes its place in the loop.
func NewMetric(cfg Config, extractor Extractor) (*MetricEngine, error) {
	if extractor == nil {
		return nil, fmt.Errorf("workflow: extractor is required")
	}
	engine, err := newEngine(cfg, extractor)
	if err != nil {
		return nil, err
	}
	return &MetricEngine{engine: engine}, nil
}

// Fill researches one metric for one company and returns the final state.
// The state's Metric field holds the extracted value.
func (m *MetricEngine) Fill(ctx context.Context, threadID, company, metric string) (*session.State, error) {
	if company == "" || metric == "" {
		return nil, fmt.Errorf("fill: company and metric are required")
	}
	question := fmt.Sprintf("Find %s for %s", metric, company)
	return m.engine.Run(ctx, threadID, question)
}

// State returns the last checkpoint for a thread.
func (m *MetricEngine) State(ctx context.Context, threadID string) (*session.State, error) {
	return m.engine.State(ctx, threadID)
}
