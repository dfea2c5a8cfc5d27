package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sweetpotato0/company-researcher/document"
)

const defaultExaBaseURL = "https://api.exa.ai"

// ExaProvider implements Provider against the Exa search API, requesting
// full text and summaries for every hit.
type ExaProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// ExaOption customises the provider.
type ExaOption func(*ExaProvider)

// WithBaseURL overrides the API endpoint; mainly useful for tests.
func WithBaseURL(url string) ExaOption {
	return func(p *ExaProvider) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ExaOption {
	return func(p *ExaProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// NewExaProvider creates an Exa search client.
func NewExaProvider(apiKey string, opts ...ExaOption) *ExaProvider {
	p := &ExaProvider{
		apiKey:  apiKey,
		baseURL: defaultExaBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type exaRequest struct {
	Query      string      `json:"query"`
	Type       string      `json:"type"`
	NumResults int         `json:"numResults"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Text    bool `json:"text"`
	Summary bool `json:"summary"`
}

type exaResponse struct {
	Results []exaResult `json:"results"`
}

type exaResult struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Text          string   `json:"text"`
	Summary       string   `json:"summary"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Highlights    []string `json:"highlights"`
}

// Search issues one search call. Transient failures are handled by the
// caller via SearchWithRetry.
func (p *ExaProvider) Search(ctx context.Context, query string, numResults int) ([]document.Document, error) {
	if numResults <= 0 {
		numResults = 15
	}

	body, err := json.Marshal(exaRequest{
		Query:      query,
		Type:       "auto",
		NumResults: numResults,
		Contents:   exaContents{Text: true, Summary: true},
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search request: HTTP %d: %s", resp.StatusCode, payload)
	}

	var parsed exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]document.Document, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		doc := document.Document{
			URL:           r.URL,
			Title:         r.Title,
			Text:          r.Text,
			Summary:       r.Summary,
			PublishedDate: r.PublishedDate,
			Author:        r.Author,
			Highlights:    r.Highlights,
			Source:        document.SourceWeb,
		}
		document.EnsureID(&doc)
		docs = append(docs, doc)
	}
	return docs, nil
}
