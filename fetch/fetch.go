// Package fetch resolves the full text of a search hit. Fetch failures are
// never fatal: every path degrades to the whitespace-normalized search
// snippet.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/pkg/logging"
)

// maxContentLength is the HEAD-probe cutoff; larger payloads are not fetched.
const maxContentLength = 50_000_000

// Fetcher resolves the full text for a document. Implementations never
// return an error: the fallback is always the document's snippet text.
type Fetcher interface {
	FullText(ctx context.Context, doc document.Document) string
}

// Config controls the HTTP fetcher.
type Config struct {
	// ProbeTimeout guards the HEAD existence probe.
	ProbeTimeout time.Duration
	// FetchTimeout guards the actual content download.
	FetchTimeout time.Duration
	// ScraperAPIKey enables the hosted-scraper fallback for URLs that are
	// neither PDFs nor obvious HTML resources. Optional.
	ScraperAPIKey string
	// ScraperBaseURL overrides the scraper endpoint; mainly for tests.
	ScraperBaseURL string
	// MaxPDFPages bounds PDF extraction; longer documents fall back to the
	// snippet.
	MaxPDFPages int
}

// DefaultConfig returns the collector defaults.
func DefaultConfig() Config {
	return Config{
		ProbeTimeout: 1 * time.Second,
		FetchTimeout: 30 * time.Second,
		MaxPDFPages:  50,
	}
}

// HTTPFetcher fetches document text over HTTP with content-type-specific
// extraction.
type HTTPFetcher struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewHTTPFetcher creates a fetcher.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 1 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxPDFPages <= 0 {
		cfg.MaxPDFPages = 50
	}
	if cfg.ScraperBaseURL == "" {
		cfg.ScraperBaseURL = "https://api.scrapingant.com/v2/general"
	}
	return &HTTPFetcher{
		cfg:    cfg,
		client: &http.Client{},
		logger: logging.WithComponent("fetch"),
	}
}

// FullText resolves the document's full text. Precedence: oversized content
// and any failure fall back to the snippet; PDFs get page-capped extraction;
// HTML resources get main-content extraction; everything else goes through
// the scraper fallback.
func (f *HTTPFetcher) FullText(ctx context.Context, doc document.Document) string {
	if doc.URL == "" {
		return NormalizeWhitespace(doc.Text)
	}

	if f.tooLarge(ctx, doc.URL) {
		f.logger.Info("content too large, using snippet", "url", doc.URL)
		return NormalizeWhitespace(doc.Text)
	}

	text, err := f.extract(ctx, doc.URL)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			f.logger.Info("fetch failed, using snippet", "url", doc.URL, "error", err)
		}
		return NormalizeWhitespace(doc.Text)
	}
	return NormalizeWhitespace(text)
}

// tooLarge HEAD-probes the URL; probe failures are not disqualifying.
func (f *HTTPFetcher) tooLarge(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := f.headClient().Do(req)
	if err != nil {
		f.logger.Debug("head probe failed", "url", rawURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	length, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	return err == nil && length > maxContentLength
}

// headClient follows redirects for the probe, unlike the content client.
func (f *HTTPFetcher) headClient() *http.Client {
	return &http.Client{Timeout: f.cfg.ProbeTimeout}
}

func (f *HTTPFetcher) extract(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/pdf") && resp.StatusCode == http.StatusOK:
		return f.extractPDF(resp.Body)
	case looksLikeHTML(rawURL):
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return ExtractMainContent(string(body))
	default:
		return f.scrape(ctx, rawURL, resp.Body)
	}
}

// scrape is the generic fallback: hosted scraper when configured, otherwise
// the response body is parsed as HTML directly.
func (f *HTTPFetcher) scrape(ctx context.Context, rawURL string, body io.Reader) (string, error) {
	if f.cfg.ScraperAPIKey == "" {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return ExtractMainContent(string(raw))
	}

	endpoint := f.cfg.ScraperBaseURL +
		"?url=" + url.QueryEscape(rawURL) +
		"&x-api-key=" + url.QueryEscape(f.cfg.ScraperAPIKey) +
		"&return_page_source=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &scrapeError{status: resp.StatusCode}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return ExtractMainContent(string(raw))
}

type scrapeError struct {
	status int
}

func (e *scrapeError) Error() string {
	return "scraper returned HTTP " + strconv.Itoa(e.status)
}

func looksLikeHTML(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	return strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm")
}

// NormalizeWhitespace collapses all runs of whitespace to single spaces.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
