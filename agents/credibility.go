package agents

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/company-researcher/llm"
)

const credibilityPrompt = `You are an expert fact-checker and researcher. You will be given a URL as well as some URL metadata.
Your task is to evaluate the credibility of the content of the given URL.

Base the credibility score (0.0 to 1.0) on:
- Domain reliability (peer-reviewed, official, or trusted news source).
- Author expertise (known expert vs. anonymous).
- Recency (fresher content gets a higher score unless older info is more authoritative).

Return JSON: {"credibility_score": <float>}`

// snippetLimit bounds how much document text is shown to the grader.
const snippetLimit = 5000

// SnippetTruncator bounds snippet size by token count instead of characters
// when a tokenizer is available.
type SnippetTruncator interface {
	Truncate(text string, maxTokens int) string
}

// CredibilityGrader assigns a [0,1] trust score to a retrieved document given
// the query context. Pure function of its inputs; callers treat failures as
// score 0.0.
type CredibilityGrader struct {
	client    llm.Client
	tokenizer SnippetTruncator
	maxTokens int
}

// NewCredibilityGrader creates a grader. tokenizer may be nil, in which case
// snippets are truncated by characters.
func NewCredibilityGrader(client llm.Client, tokenizer SnippetTruncator) *CredibilityGrader {
	return &CredibilityGrader{
		client:    client,
		tokenizer: tokenizer,
		maxTokens: 1200,
	}
}

type credibilityResult struct {
	CredibilityScore float64 `json:"credibility_score"`
}

// Score grades one document. The result is clamped to [0,1].
func (g *CredibilityGrader) Score(ctx context.Context, question, url, date, author, snippet string) (float64, error) {
	if g.tokenizer != nil {
		snippet = g.tokenizer.Truncate(snippet, g.maxTokens)
	} else {
		snippet = truncate(snippet, snippetLimit)
	}

	prompt := fmt.Sprintf("Query: %q\nPublication Date: %q\nAuthor: %q\nSnippet: %q\nURL: %s",
		question, date, author, snippet, url)

	var result credibilityResult
	if err := llm.GenerateJSON(ctx, g.client, credibilityPrompt, prompt, &result); err != nil {
		return 0, fmt.Errorf("credibility grading: %w", err)
	}

	score := result.CredibilityScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
