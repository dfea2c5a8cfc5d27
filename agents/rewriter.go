package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/llm"
)

const rewriterPrompt = `You are an expert in company research and analysis.

Based on the provided document and the question with its follow-up question, refine the question to be more informative and specific.
Also translate the question to the language of the document.

Return JSON: {"updated_query": <string>}`

// QuestionRewriter merges the original question, the grader's follow-up, and
// a document sample into a rewritten query. Only one anchor document is used
// to bound prompt size.
type QuestionRewriter struct {
	client llm.Client
}

// NewQuestionRewriter creates a rewriter.
func NewQuestionRewriter(client llm.Client) *QuestionRewriter {
	return &QuestionRewriter{client: client}
}

type rewriteResult struct {
	UpdatedQuery string `json:"updated_query"`
}

// Rewrite produces the refined query. anchor may be nil when no evidence is
// in scope.
func (r *QuestionRewriter) Rewrite(ctx context.Context, question, followUp string, anchor *document.Document) (string, error) {
	docBlock := "(no document available)"
	if anchor != nil {
		docBlock = formatDocuments([]document.Document{*anchor})
	}
	prompt := fmt.Sprintf("Question: %s\nFollow-up question: %s\nDocument:\n%s", question, followUp, docBlock)

	var result rewriteResult
	if err := llm.GenerateJSON(ctx, r.client, rewriterPrompt, prompt, &result); err != nil {
		return "", fmt.Errorf("question rewrite: %w", err)
	}

	rewritten := strings.TrimSpace(result.UpdatedQuery)
	if rewritten == "" {
		return "", fmt.Errorf("question rewrite: empty updated query")
	}
	return rewritten, nil
}
