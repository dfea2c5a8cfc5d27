package websearch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sweetpotato0/company-researcher/document"
)

type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) Search(ctx context.Context, query string, numResults int) ([]document.Document, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, fmt.Errorf("transient failure %d", p.calls)
	}
	return []document.Document{{ID: "d1", Text: "result"}}, nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestSearchWithRetryRecovers(t *testing.T) {
	provider := &flakyProvider{failures: 3}
	cfg := RetryConfig{MaxAttempts: 5, Factor: 1.1, sleep: noSleep}

	docs, err := SearchWithRetry(context.Background(), provider, "q", 10, cfg)
	if err != nil {
		t.Fatalf("SearchWithRetry failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
	if provider.calls != 4 {
		t.Errorf("expected 4 calls, got %d", provider.calls)
	}
}

func TestSearchWithRetryExhaustionSurfacesLastError(t *testing.T) {
	provider := &flakyProvider{failures: 100}
	cfg := RetryConfig{MaxAttempts: 3, Factor: 1.1, sleep: noSleep}

	_, err := SearchWithRetry(context.Background(), provider, "q", 10, cfg)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if provider.calls != 3 {
		t.Errorf("expected 3 calls, got %d", provider.calls)
	}
	// The final provider error must survive wrapping.
	if got := err.Error(); got != "search failed after 3 attempts: transient failure 3" {
		t.Errorf("unexpected error: %v", got)
	}
}

func TestSearchWithRetryFirstAttemptSuccess(t *testing.T) {
	provider := &flakyProvider{}
	slept := false
	cfg := RetryConfig{MaxAttempts: 5, Factor: 1.5, sleep: func(ctx context.Context, d time.Duration) error {
		slept = true
		return nil
	}}

	if _, err := SearchWithRetry(context.Background(), provider, "q", 10, cfg); err != nil {
		t.Fatalf("SearchWithRetry failed: %v", err)
	}
	if slept {
		t.Error("no backoff expected when the first attempt succeeds")
	}
}

func TestSearchWithRetryBackoffGrows(t *testing.T) {
	provider := &flakyProvider{failures: 100}
	var delays []time.Duration
	cfg := RetryConfig{MaxAttempts: 4, Factor: 2, sleep: func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}}

	_, _ = SearchWithRetry(context.Background(), provider, "q", 10, cfg)
	if len(delays) != 3 {
		t.Fatalf("expected 3 backoffs, got %d", len(delays))
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] <= delays[i-1] {
			t.Errorf("backoff did not grow: %v then %v", delays[i-1], delays[i])
		}
	}
	if delays[0] != 2*time.Second {
		t.Errorf("expected first backoff of 2s, got %v", delays[0])
	}
}

func TestSearchWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &flakyProvider{failures: 100}
	cfg := RetryConfig{MaxAttempts: 10, Factor: 1.5, sleep: func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}}

	_, err := SearchWithRetry(ctx, provider, "q", 10, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation, got %v", err)
	}
}
