package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Request bundles inputs for an LLM invocation. Every call in the research
// workflow is a single system+user prompt pair; there is no conversational
// history.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
}

// Response captures the LLM reply.
type Response struct {
	Text string
}

// Client defines the interface for LLM providers. Provider failures are
// returned as-is; callers decide per-call whether to recover or propagate.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// GenerateJSON runs a generation call instructed to reply with a single JSON
// object and unmarshals the reply into out. The schema is conveyed through
// the system prompt; code fences around the object are tolerated.
func GenerateJSON(ctx context.Context, client Client, system, prompt string, out any) error {
	if client == nil {
		return fmt.Errorf("llm client is nil")
	}

	req := &Request{
		System: system + "\n\nRespond with a single JSON object and nothing else.",
		Prompt: prompt,
	}
	resp, err := client.Generate(ctx, req)
	if err != nil {
		return err
	}

	raw := extractJSON(resp.Text)
	if raw == "" {
		return fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

// extractJSON strips code fences and surrounding prose, returning the first
// top-level JSON object in text.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
