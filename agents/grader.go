package agents

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/company-researcher/llm"
)

const graderPrompt = `You are a grader assessing whether the provided answer fully addresses the question, including details and accuracy.
If the answer is sufficient, set "complete" to true. If not, set it to false and provide a specific follow-up question to the web to fill missing information.

Return JSON: {"complete": <bool>, "follow_up_question": <string, only when complete is false>}`

// CompletenessGrader judges whether a draft fully answers the question and
// emits a follow-up question when it does not.
type CompletenessGrader struct {
	client llm.Client
}

// NewCompletenessGrader creates a grader.
func NewCompletenessGrader(client llm.Client) *CompletenessGrader {
	return &CompletenessGrader{client: client}
}

// Grade evaluates an answer against the question.
func (g *CompletenessGrader) Grade(ctx context.Context, question, answer string) (Verdict, error) {
	prompt := fmt.Sprintf("User question:\n\n%s\n\nLLM generation: %s", question, answer)

	var verdict Verdict
	if err := llm.GenerateJSON(ctx, g.client, graderPrompt, prompt, &verdict); err != nil {
		return Verdict{}, fmt.Errorf("completeness grading: %w", err)
	}
	if verdict.Complete {
		verdict.FollowUpQuestion = ""
	}
	return verdict, nil
}
