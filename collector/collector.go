// Package collector turns a research question into a ranked evidence set:
// web search, full-text fetch, credibility scoring, and hybrid retrieval
// over a per-question index.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sweetpotato0/company-researcher/agents"
	"github.com/sweetpotato0/company-researcher/chunking"
	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/fetch"
	"github.com/sweetpotato0/company-researcher/pkg/logging"
	"github.com/sweetpotato0/company-researcher/retrieval"
	"github.com/sweetpotato0/company-researcher/vector"
	"github.com/sweetpotato0/company-researcher/websearch"
)

// StoreFactory produces a fresh vector store for each collection round.
type StoreFactory func() vector.Store

// Config wires the collector's pipeline stages.
type Config struct {
	Search     websearch.Provider
	Retry      websearch.RetryConfig
	Fetcher    fetch.Fetcher
	Grader     *agents.CredibilityGrader
	Embedder   vector.Embedder
	Chunker    chunking.Chunker
	NewStore   StoreFactory
	NumResults int
	Retrieval  retrieval.Options
}

// Collector runs the evidence pipeline for one question.
type Collector struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a collector. Search, Fetcher, Grader, Embedder, Chunker, and
// NewStore are required.
func New(cfg Config) (*Collector, error) {
	if cfg.Search == nil {
		return nil, fmt.Errorf("collector: search provider is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("collector: fetcher is required")
	}
	if cfg.Grader == nil {
		return nil, fmt.Errorf("collector: credibility grader is required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("collector: embedder is required")
	}
	if cfg.Chunker == nil {
		return nil, fmt.Errorf("collector: chunker is required")
	}
	if cfg.NewStore == nil {
		return nil, fmt.Errorf("collector: store factory is required")
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = 15
	}
	if cfg.Retrieval == (retrieval.Options{}) {
		cfg.Retrieval = retrieval.DefaultOptions()
	}
	return &Collector{cfg: cfg, logger: logging.WithComponent("collector")}, nil
}

// Collect runs search, fetch, credibility scoring, indexing, and hybrid
// retrieval for the question. It returns the ranked evidence set and the raw
// web results that produced it.
func (c *Collector) Collect(ctx context.Context, question string) ([]document.Document, []document.Document, error) {
	results, err := websearch.SearchWithRetry(ctx, c.cfg.Search, question, c.cfg.NumResults, c.cfg.Retry)
	if err != nil {
		return nil, nil, fmt.Errorf("web search: %w", err)
	}
	c.logger.Info("web search complete", "results", len(results))

	c.resolveFullText(ctx, results)
	c.scoreCredibility(ctx, question, results)

	idx, err := retrieval.BuildIndex(ctx, c.cfg.NewStore(), c.cfg.Embedder, c.cfg.Chunker, results)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}

	ranked, err := retrieval.Retrieve(ctx, idx, question, c.cfg.Retrieval)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve: %w", err)
	}
	c.logger.Info("evidence collected", "ranked", len(ranked), "raw", len(results))
	return ranked, results, nil
}

// resolveFullText replaces each result's snippet with fetched full text,
// concurrently. The fetcher degrades to the snippet on its own, so there is
// no error path here.
func (c *Collector) resolveFullText(ctx context.Context, docs []document.Document) {
	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i].Text = c.cfg.Fetcher.FullText(ctx, docs[i])
		}(i)
	}
	wg.Wait()
}

// scoreCredibility grades each document concurrently. A failed grade marks
// the document 0.0 rather than aborting the round, so one bad source cannot
// sink the whole collection.
func (c *Collector) scoreCredibility(ctx context.Context, question string, docs []document.Document) {
	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			score, err := c.cfg.Grader.Score(ctx, question, docs[i].URL, docs[i].PublishedDate, docs[i].Author, docs[i].Text)
			if err != nil {
				c.logger.Warn("credibility scoring failed", "url", docs[i].URL, "error", err)
				score = 0.0
			}
			docs[i].SetCredibility(score)
		}(i)
	}
	wg.Wait()
}
