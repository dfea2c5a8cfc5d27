package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sweetpotato0/company-researcher/agents"
	"github.com/sweetpotato0/company-researcher/chunking"
	vectorinmemory "github.com/sweetpotato0/company-researcher/contrib/vector/inmemory"
	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/llm"
	"github.com/sweetpotato0/company-researcher/vector"
	"github.com/sweetpotato0/company-researcher/websearch"
)

type stubSearch struct {
	docs []document.Document
	err  error
}

func (s *stubSearch) Search(ctx context.Context, query string, numResults int) ([]document.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]document.Document, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

type stubFetcher struct{}

func (stubFetcher) FullText(ctx context.Context, doc document.Document) string {
	return "fetched " + doc.Text
}

// gradeByURL scores 0.9, but fails any URL containing "bad".
type gradeByURL struct{}

func (gradeByURL) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if strings.Contains(req.Prompt, "bad.example") {
		return nil, fmt.Errorf("grader refused")
	}
	return &llm.Response{Text: `{"credibility_score": 0.9}`}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 3 }

func newTestCollector(t *testing.T, search websearch.Provider) *Collector {
	t.Helper()
	c, err := New(Config{
		Search:   search,
		Retry:    websearch.RetryConfig{MaxAttempts: 1},
		Fetcher:  stubFetcher{},
		Grader:   agents.NewCredibilityGrader(gradeByURL{}, nil),
		Embedder: stubEmbedder{},
		Chunker:  chunking.NewWindowChunker(),
		NewStore: func() vector.Store { return vectorinmemory.New() },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestCollectPipeline(t *testing.T) {
	search := &stubSearch{docs: []document.Document{
		{ID: "good", URL: "https://good.example/a", Text: "good snippet", Source: document.SourceWeb},
	}}
	c := newTestCollector(t, search)

	ranked, web, err := c.Collect(context.Background(), "question")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(web) != 1 {
		t.Fatalf("expected 1 raw result, got %d", len(web))
	}
	if web[0].Text != "fetched good snippet" {
		t.Errorf("full text was not resolved: %q", web[0].Text)
	}
	if got := web[0].CredibilityOr(-1); got != 0.9 {
		t.Errorf("expected credibility 0.9, got %f", got)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked doc, got %d", len(ranked))
	}
}

func TestCollectScoringFailureIsolated(t *testing.T) {
	search := &stubSearch{docs: []document.Document{
		{ID: "good", URL: "https://good.example/a", Text: "solid evidence", Source: document.SourceWeb},
		{ID: "bad", URL: "https://bad.example/b", Text: "cursed evidence", Source: document.SourceWeb},
	}}
	c := newTestCollector(t, search)

	ranked, web, err := c.Collect(context.Background(), "question")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(web) != 2 {
		t.Fatalf("expected 2 raw results, got %d", len(web))
	}

	byID := make(map[string]document.Document)
	for _, d := range web {
		byID[d.ID] = d
	}
	if got := byID["bad"].CredibilityOr(-1); got != 0.0 {
		t.Errorf("failed grade must score 0.0, got %f", got)
	}
	if got := byID["good"].CredibilityOr(-1); got != 0.9 {
		t.Errorf("expected 0.9 for healthy doc, got %f", got)
	}

	// The zero-scored document falls below the credibility floor.
	if len(ranked) != 1 || ranked[0].ID != "good" {
		t.Errorf("expected only the healthy doc to rank, got %d docs", len(ranked))
	}
}

// queryEchoSearch returns one document named after the query, so tests can
// tell which round produced which evidence.
type queryEchoSearch struct{}

func (queryEchoSearch) Search(ctx context.Context, query string, numResults int) ([]document.Document, error) {
	return []document.Document{
		{ID: query, URL: "https://good.example/" + query, Text: "evidence for " + query, Source: document.SourceWeb},
	}, nil
}

func TestCollectConcurrentRoundsIsolated(t *testing.T) {
	// Concurrent rounds each build their own index. One round must never see
	// another round's documents or come back empty because a sibling cleared
	// a shared store between indexing and retrieval.
	c := newTestCollector(t, queryEchoSearch{})

	const rounds = 16
	ranked := make([][]document.Document, rounds)
	errs := make([]error, rounds)

	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ranked[i], _, errs[i] = c.Collect(context.Background(), fmt.Sprintf("q%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < rounds; i++ {
		if errs[i] != nil {
			t.Fatalf("round %d failed: %v", i, errs[i])
		}
		if len(ranked[i]) == 0 {
			t.Errorf("round %d lost its evidence", i)
			continue
		}
		for _, d := range ranked[i] {
			if want := fmt.Sprintf("q%d", i); d.ID != want {
				t.Errorf("round %d saw foreign document %s", i, d.ID)
			}
		}
	}
}

func TestCollectSearchFailurePropagates(t *testing.T) {
	search := &stubSearch{err: fmt.Errorf("provider down")}
	c := newTestCollector(t, search)

	if _, _, err := c.Collect(context.Background(), "question"); err == nil {
		t.Error("expected search failure to propagate")
	}
}

func TestCollectEmptySearchResults(t *testing.T) {
	c := newTestCollector(t, &stubSearch{})

	ranked, web, err := c.Collect(context.Background(), "question")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(ranked) != 0 || len(web) != 0 {
		t.Errorf("expected empty results, got %d ranked, %d raw", len(ranked), len(web))
	}
}
