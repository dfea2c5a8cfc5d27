// Package websearch defines the web search provider interface and the retry
// policy applied to transient provider failures.
package websearch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/pkg/logging"
)

// Provider issues a web search and returns ranked documents with snippet
// text, URL, author, and date.
type Provider interface {
	Search(ctx context.Context, query string, numResults int) ([]document.Document, error)
}

// RetryConfig controls the exponential backoff applied around Search calls.
// Backoff before attempt n is Factor^n seconds.
type RetryConfig struct {
	MaxAttempts int
	Factor      float64

	// sleep is injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig mirrors the provider defaults: up to 10 attempts with a
// 1.5 backoff factor.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 10, Factor: 1.5}
}

// SearchWithRetry calls provider.Search with exponential backoff on failure,
// surfacing the last error once attempts are exhausted.
func SearchWithRetry(ctx context.Context, provider Provider, query string, numResults int, cfg RetryConfig) ([]document.Document, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Factor <= 0 {
		cfg.Factor = 1.5
	}
	if cfg.sleep == nil {
		cfg.sleep = sleepCtx
	}
	logger := logging.WithComponent("websearch")

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		docs, err := provider.Search(ctx, query, numResults)
		if err == nil {
			return docs, nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}
		backoff := time.Duration(math.Pow(cfg.Factor, float64(attempt)) * float64(time.Second))
		logger.Info("search attempt failed, retrying",
			"attempt", attempt,
			"backoff", backoff.String(),
			"error", err,
		)
		if err := cfg.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	logger.Warn("search failed after retries", "attempts", cfg.MaxAttempts, "error", lastErr)
	return nil, fmt.Errorf("search failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
