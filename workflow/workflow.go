// Package workflow runs the research loop: collect evidence, generate an
// answer, grade it for completeness, and rewrite the question for another
// round while the retry budget allows.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweetpotato0/company-researcher/agents"
	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/errors"
	"github.com/sweetpotato0/company-researcher/graph"
	"github.com/sweetpotato0/company-researcher/pkg/logging"
	"github.com/sweetpotato0/company-researcher/pkg/telemetry"
	"github.com/sweetpotato0/company-researcher/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxRetries bounds how many times the loop may re-enter collection
// after the first round.
const DefaultMaxRetries = 1

// Node names in the research graph.
const (
	nodeCollect        = "collect"
	nodeGenerate       = "generate"
	nodeGrade          = "grade"
	nodeIncrementRetry = "increment_retry"
	nodeRewrite        = "rewrite"
)

// Routing keys returned by the graph's condition functions.
const (
	routeDone     = "done"
	routeContinue = "continue"
)

// Collector produces the ranked evidence set and the raw web results for a
// question.
type Collector interface {
	Collect(ctx context.Context, question string) ([]document.Document, []document.Document, error)
}

// Generator drafts an answer from the evidence.
type Generator interface {
	Generate(ctx context.Context, question string, docs []document.Document) (string, error)
}

// Grader judges whether the draft fully answers the question.
type Grader interface {
	Grade(ctx context.Context, question, answer string) (agents.Verdict, error)
}

// Rewriter reformulates the question for the next collection round.
type Rewriter interface {
	Rewrite(ctx context.Context, question, followUp string, anchor *document.Document) (string, error)
}

// Config wires an Engine.
type Config struct {
	Collector  Collector
	Generator  Generator
	Grader     Grader
	Rewriter   Rewriter
	Store      session.Store
	MaxRetries int
}

// Engine executes research threads. At most one run per thread ID may be in
// flight at a time.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	// extractor, when set, replaces free-form generation with structured
	// metric extraction.
	extractor Extractor

	mu     sync.Mutex
	active map[string]struct{}
}

// New creates an engine. Collector, Generator, Grader, Rewriter, and Store
// are required.
func New(cfg Config) (*Engine, error) {
	return newEngine(cfg, nil)
}

func newEngine(cfg Config, extractor Extractor) (*Engine, error) {
	if cfg.Collector == nil {
		return nil, fmt.Errorf("workflow: collector is required")
	}
	if cfg.Generator == nil && extractor == nil {
		return nil, fmt.Errorf("workflow: generator is required")
	}
	if cfg.Grader == nil {
		return nil, fmt.Errorf("workflow: grader is required")
	}
	if cfg.Rewriter == nil {
		return nil, fmt.Errorf("workflow: rewriter is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("workflow: session store is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Engine{
		cfg:       cfg,
		logger:    logging.WithComponent("workflow"),
		extractor: extractor,
		active:    make(map[string]struct{}),
	}, nil
}

// Run executes the full research loop for a thread and returns the final
// state. A second Run with the same thread ID while the first is in flight
// fails with errors.ErrSessionBusy.
func (e *Engine) Run(ctx context.Context, threadID, question string) (*session.State, error) {
	if threadID == "" || question == "" {
		return nil, fmt.Errorf("run: thread id and question are required: %w", errors.ErrInvalidInput)
	}
	if err := e.acquire(threadID); err != nil {
		return nil, err
	}
	defer e.release(threadID)

	ctx, span := telemetry.Tracer().Start(ctx, "workflow.run",
		trace.WithAttributes(
			attribute.String("thread_id", threadID),
			attribute.Int("max_retries", e.cfg.MaxRetries),
		))
	var runErr error
	defer func() { telemetry.End(span, runErr) }()

	logger := e.logger.With("thread_id", threadID)
	logger.Info("research run started", "question", question)

	g, err := e.buildGraph(threadID)
	if err != nil {
		runErr = err
		return nil, err
	}

	state := &session.State{
		ThreadID:  threadID,
		Question:  question,
		UpdatedAt: time.Now().UTC(),
	}
	if err := e.cfg.Store.Save(ctx, state); err != nil {
		runErr = fmt.Errorf("save initial state: %w", err)
		return nil, runErr
	}

	state, err = g.Run(ctx, state)
	if err != nil {
		runErr = err
		return state, err
	}

	logger.Info("research run finished",
		"complete", state.Complete, "retry_count", state.RetryCount,
		"documents", len(state.Documents))
	return state, nil
}

// State returns the last checkpoint for a thread.
func (e *Engine) State(ctx context.Context, threadID string) (*session.State, error) {
	return e.cfg.Store.Load(ctx, threadID)
}

func (e *Engine) acquire(threadID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.active[threadID]; busy {
		return fmt.Errorf("thread %s: %w", threadID, errors.ErrSessionBusy)
	}
	e.active[threadID] = struct{}{}
	return nil
}

func (e *Engine) release(threadID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, threadID)
}

// buildGraph assembles the research loop. Every node's output is
// checkpointed before routing continues.
func (e *Engine) buildGraph(threadID string) (*graph.Graph[*session.State], error) {
	logger := e.logger.With("thread_id", threadID)

	return graph.NewBuilder[*session.State]().
		AddNode(nodeCollect, func(ctx context.Context, s *session.State) (*session.State, error) {
			docs, web, err := e.cfg.Collector.Collect(ctx, s.Question)
			if err != nil {
				return s, fmt.Errorf("collect: %w", err)
			}
			s.Documents = docs
			s.WebResults = web
			logger.Info("evidence collected", "documents", len(docs))
			return s, nil
		}).
		AddNode(nodeGenerate, func(ctx context.Context, s *session.State) (*session.State, error) {
			if e.extractor != nil {
				metric, err := e.extractor.Extract(ctx, s.Question, s.Documents)
				if err != nil {
					return s, fmt.Errorf("extract metric: %w", err)
				}
				s.Metric = &metric
				s.Generation = fmt.Sprintf("%s. %s", metric.ValueString(), metric.Comment)
				return s, nil
			}
			answer, err := e.cfg.Generator.Generate(ctx, s.Question, s.Documents)
			if err != nil {
				return s, fmt.Errorf("generate: %w", err)
			}
			s.Generation = answer
			return s, nil
		}).
		AddNode(nodeGrade, func(ctx context.Context, s *session.State) (*session.State, error) {
			verdict, err := e.cfg.Grader.Grade(ctx, s.Question, s.Generation)
			if err != nil {
				return s, fmt.Errorf("grade: %w", err)
			}
			s.Complete = verdict.Complete
			s.FollowUpQuestion = verdict.FollowUpQuestion
			logger.Info("draft graded", "complete", verdict.Complete)
			return s, nil
		}).
		AddNode(nodeIncrementRetry, func(ctx context.Context, s *session.State) (*session.State, error) {
			s.RetryCount++
			logger.Info("retry budget consumed", "retry_count", s.RetryCount)
			return s, nil
		}).
		AddNode(nodeRewrite, func(ctx context.Context, s *session.State) (*session.State, error) {
			var anchor *document.Document
			if len(s.Documents) > 0 {
				top := s.Documents[0].Clone()
				anchor = &top
			}
			rewritten, err := e.cfg.Rewriter.Rewrite(ctx, s.Question, s.FollowUpQuestion, anchor)
			if err != nil {
				return s, fmt.Errorf("rewrite: %w", err)
			}
			logger.Info("question rewritten", "question", rewritten)
			s.Question = rewritten
			return s, nil
		}).
		AddEdge(nodeCollect, nodeGenerate).
		AddEdge(nodeGenerate, nodeGrade).
		AddConditionalEdge(nodeGrade, func(ctx context.Context, s *session.State) (string, error) {
			if s.Complete {
				return routeDone, nil
			}
			return routeContinue, nil
		}, map[string]string{
			routeDone:     graph.End,
			routeContinue: nodeIncrementRetry,
		}).
		AddConditionalEdge(nodeIncrementRetry, func(ctx context.Context, s *session.State) (string, error) {
			if s.RetryCount >= e.cfg.MaxRetries {
				logger.Info("retry budget exhausted, keeping last draft")
				return routeDone, nil
			}
			return routeContinue, nil
		}, map[string]string{
			routeDone:     graph.End,
			routeContinue: nodeRewrite,
		}).
		AddEdge(nodeRewrite, nodeCollect).
		SetEntry(nodeCollect).
		// Worst case each round touches all five nodes, so size the visit
		// guard from the retry budget instead of relying on the default cap.
		SetMaxVisits(5 * (e.cfg.MaxRetries + 1)).
		SetHook(func(ctx context.Context, node string, s *session.State) error {
			s.UpdatedAt = time.Now().UTC()
			if err := e.cfg.Store.Save(ctx, s); err != nil {
				return fmt.Errorf("checkpoint after %s: %w", node, err)
			}
			return nil
		}).
		Build()
}
