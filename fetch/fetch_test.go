package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweetpotato0/company-researcher/document"
)

const samplePage = `<html>
<head><title>Quarterly report</title></head>
<body>
<header>Site chrome</header>
<nav>Menu</nav>
<script>var tracked = true;</script>
<main>Revenue grew   12%
in the third quarter.</main>
<footer>Copyright</footer>
</body>
</html>`

func newFetcher(cfg Config) *HTTPFetcher {
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = time.Second
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	return NewHTTPFetcher(cfg)
}

func TestFullTextExtractsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := newFetcher(Config{})
	doc := document.Document{URL: srv.URL + "/report.html", Text: "snippet"}

	got := f.FullText(context.Background(), doc)
	want := "Revenue grew 12% in the third quarter."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFullTextOversizedFallsBackToSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "60000000")
			return
		}
		t.Error("content should not be fetched for oversized resources")
	}))
	defer srv.Close()

	f := newFetcher(Config{})
	doc := document.Document{URL: srv.URL + "/huge.html", Text: "the   original\nsnippet"}

	if got := f.FullText(context.Background(), doc); got != "the original snippet" {
		t.Errorf("expected normalized snippet, got %q", got)
	}
}

func TestFullTextUnreachableHostFallsBackToSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := newFetcher(Config{FetchTimeout: time.Second})
	doc := document.Document{URL: srv.URL + "/gone.html", Text: "cached  snippet"}

	if got := f.FullText(context.Background(), doc); got != "cached snippet" {
		t.Errorf("expected snippet fallback, got %q", got)
	}
}

func TestFullTextEmptyURLUsesSnippet(t *testing.T) {
	f := newFetcher(Config{})
	doc := document.Document{Text: "  just   a snippet  "}

	if got := f.FullText(context.Background(), doc); got != "just a snippet" {
		t.Errorf("expected normalized snippet, got %q", got)
	}
}

func TestFullTextNonHTMLPathParsesBodyWithoutScraperKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := newFetcher(Config{})
	doc := document.Document{URL: srv.URL + "/report", Text: "snippet"}

	got := f.FullText(context.Background(), doc)
	if !strings.Contains(got, "Revenue grew 12%") {
		t.Errorf("expected extracted content, got %q", got)
	}
}

func TestFullTextScraperOutlivesProbeTimeout(t *testing.T) {
	// The hosted scraper routinely answers slower than the HEAD probe
	// budget. Its request runs under the fetch timeout, not the probe one.
	scraper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("x-api-key") != "scraper-key" {
			t.Errorf("missing scraper key in %q", r.URL.RawQuery)
		}
		time.Sleep(150 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer scraper.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": "not html"}`))
	}))
	defer origin.Close()

	f := newFetcher(Config{
		ProbeTimeout:   50 * time.Millisecond,
		FetchTimeout:   5 * time.Second,
		ScraperAPIKey:  "scraper-key",
		ScraperBaseURL: scraper.URL,
	})
	doc := document.Document{URL: origin.URL + "/api/report", Text: "snippet"}

	got := f.FullText(context.Background(), doc)
	want := "Revenue grew 12% in the third quarter."
	if got != want {
		t.Errorf("expected scraped content, got %q", got)
	}
}

func TestExtractMainContentPrefersMainOverBody(t *testing.T) {
	html := `<html><body>outside<main>inside</main></body></html>`
	got, err := ExtractMainContent(html)
	if err != nil {
		t.Fatalf("ExtractMainContent failed: %v", err)
	}
	if got != "inside" {
		t.Errorf("expected main content, got %q", got)
	}
}

func TestExtractMainContentClassSelectors(t *testing.T) {
	html := `<html><body><div class="sidebar">nav</div><div class="article-content">the story</div></body></html>`
	got, err := ExtractMainContent(html)
	if err != nil {
		t.Fatalf("ExtractMainContent failed: %v", err)
	}
	if got != "the story" {
		t.Errorf("expected article content, got %q", got)
	}
}

func TestExtractMainContentFallsBackToBody(t *testing.T) {
	html := `<html><body><p>plain page</p></body></html>`
	got, err := ExtractMainContent(html)
	if err != nil {
		t.Fatalf("ExtractMainContent failed: %v", err)
	}
	if got != "plain page" {
		t.Errorf("expected body text, got %q", got)
	}
}

func TestExtractMainContentStripsChrome(t *testing.T) {
	html := `<html><body><nav>menu</nav><script>x()</script><main>content</main></body></html>`
	got, err := ExtractMainContent(html)
	if err != nil {
		t.Fatalf("ExtractMainContent failed: %v", err)
	}
	if strings.Contains(got, "menu") || strings.Contains(got, "x()") {
		t.Errorf("chrome elements leaked into %q", got)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "  a\tb\n\nc   d  "
	if got := NormalizeWhitespace(in); got != "a b c d" {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
}
