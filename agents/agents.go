// Package agents holds the typed LLM wrappers used by the research workflow.
// Each agent is prompt assembly plus structured-output decoding; all control
// flow lives in the workflow engine.
package agents

import (
	"fmt"
	"strings"

	"github.com/sweetpotato0/company-researcher/document"
)

// Verdict is the completeness grader's structured output.
type Verdict struct {
	// Complete is true when the answer fully addresses the question.
	Complete bool `json:"complete"`
	// FollowUpQuestion is populated only when Complete is false. It must be
	// a concrete question suitable for a follow-up web search.
	FollowUpQuestion string `json:"follow_up_question,omitempty"`
}

// Metric is the structured answer produced for one (company, metric) pair.
// Value is either a number or a string depending on the metric.
type Metric struct {
	Value   any    `json:"value"`
	Comment string `json:"comment"`
}

// ValueString renders the metric value for tabular output.
func (m Metric) ValueString() string {
	switch v := m.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatDocuments renders evidence for generation prompts: one block per
// document with title, URL, and credibility header followed by the text.
func formatDocuments(docs []document.Document) string {
	if len(docs) == 0 {
		return "No evidence was retrieved."
	}
	var b strings.Builder
	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.URL
		}
		fmt.Fprintf(&b, "[Title: %s | URL: %s | Credibility: %.2f]\n%s\n---\n",
			title, doc.URL, doc.CredibilityOr(0), doc.Text)
	}
	return b.String()
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit]
}
