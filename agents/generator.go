package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/llm"
)

const generatorPrompt = `You are an expert in analysis of financial statements and annual reports.
Generate a direct and well-structured answer to the question, using only the provided sources.

Guidelines:
1. Synthesize details if multiple sources agree.
2. Prioritize higher credibility scores if sources conflict.
3. Prioritize official sources, such as official websites, annual reports, etc.
4. Cite sources explicitly using (According to [Title](URL)).
5. Ensure clarity, accuracy, and neutrality.

Now generate the answer.`

// AnswerGenerator synthesizes a single answer from question plus evidence.
// Failures propagate to the caller; they are not locally recoverable.
type AnswerGenerator struct {
	client llm.Client
}

// NewAnswerGenerator creates a generator.
func NewAnswerGenerator(client llm.Client) *AnswerGenerator {
	return &AnswerGenerator{client: client}
}

// Generate produces an answer from question and evidence.
func (g *AnswerGenerator) Generate(ctx context.Context, question string, docs []document.Document) (string, error) {
	prompt := fmt.Sprintf("Question: %s\nDocuments:\n%s", question, formatDocuments(docs))

	resp, err := g.client.Generate(ctx, &llm.Request{
		System: generatorPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("answer generation: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
