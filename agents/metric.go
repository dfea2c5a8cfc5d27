package agents

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/llm"
)

const metricPrompt = `Generate a direct and well-structured answer to the question, using only the provided sources. Put the full answer in the comment field.
Put the extracted particular value in the value field. For numeric values write them in the full numeric form (120000000, not 120 million).

Guidelines:
1. Synthesize details if multiple sources agree.
2. Prioritize higher credibility scores if sources conflict.
3. Prioritize official sources, such as official websites, annual reports, etc.
4. Cite sources explicitly using (According to [Title](URL)).
5. Ensure clarity, accuracy, and neutrality.

Return JSON: {"value": <number or string>, "comment": <string>}`

// MetricExtractor produces the structured (value, comment) answer used in
// table mode, one per (company, metric) pair.
type MetricExtractor struct {
	client llm.Client
}

// NewMetricExtractor creates an extractor.
func NewMetricExtractor(client llm.Client) *MetricExtractor {
	return &MetricExtractor{client: client}
}

// Extract answers "Find <metric> for <company>" from the supplied evidence.
func (e *MetricExtractor) Extract(ctx context.Context, question string, docs []document.Document) (Metric, error) {
	prompt := fmt.Sprintf("Question: %s\nDocuments:\n%s", question, formatDocuments(docs))

	var metric Metric
	if err := llm.GenerateJSON(ctx, e.client, metricPrompt, prompt, &metric); err != nil {
		return Metric{}, fmt.Errorf("metric extraction: %w", err)
	}
	return metric, nil
}
