package llm

import (
	"context"
	"errors"
	"testing"
)

type stubClient struct {
	response string
	err      error
	lastReq  *Request
}

func (s *stubClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Text: s.response}, nil
}

func TestGenerateJSON(t *testing.T) {
	client := &stubClient{response: `{"answer": "42", "score": 0.5}`}

	var out struct {
		Answer string  `json:"answer"`
		Score  float64 `json:"score"`
	}
	if err := GenerateJSON(context.Background(), client, "system", "prompt", &out); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if out.Answer != "42" {
		t.Errorf("expected answer 42, got %q", out.Answer)
	}
	if out.Score != 0.5 {
		t.Errorf("expected score 0.5, got %f", out.Score)
	}
}

func TestGenerateJSONAppendsInstruction(t *testing.T) {
	client := &stubClient{response: `{}`}

	var out struct{}
	if err := GenerateJSON(context.Background(), client, "system", "prompt", &out); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if client.lastReq == nil {
		t.Fatal("client was not called")
	}
	want := "Respond with a single JSON object and nothing else."
	if got := client.lastReq.System; len(got) < len(want) || got[len(got)-len(want):] != want {
		t.Errorf("system prompt missing JSON instruction: %q", got)
	}
}

func TestGenerateJSONCodeFences(t *testing.T) {
	client := &stubClient{response: "```json\n{\"value\": 7}\n```"}

	var out struct {
		Value int `json:"value"`
	}
	if err := GenerateJSON(context.Background(), client, "s", "p", &out); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if out.Value != 7 {
		t.Errorf("expected value 7, got %d", out.Value)
	}
}

func TestGenerateJSONSurroundingProse(t *testing.T) {
	client := &stubClient{response: `Here is the result: {"ok": true} hope that helps`}

	var out struct {
		OK bool `json:"ok"`
	}
	if err := GenerateJSON(context.Background(), client, "s", "p", &out); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if !out.OK {
		t.Error("expected ok to be true")
	}
}

func TestGenerateJSONPropagatesClientError(t *testing.T) {
	wantErr := errors.New("provider down")
	client := &stubClient{err: wantErr}

	var out struct{}
	err := GenerateJSON(context.Background(), client, "s", "p", &out)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestGenerateJSONNoObject(t *testing.T) {
	client := &stubClient{response: "I could not produce JSON"}

	var out struct{}
	if err := GenerateJSON(context.Background(), client, "s", "p", &out); err == nil {
		t.Error("expected error for response without JSON")
	}
}

func TestExtractJSONNestedAndStrings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "nested object",
			in:   `{"a": {"b": 1}}`,
			want: `{"a": {"b": 1}}`,
		},
		{
			name: "brace inside string",
			in:   `{"a": "}"}`,
			want: `{"a": "}"}`,
		},
		{
			name: "escaped quote inside string",
			in:   `{"a": "say \"hi\""}`,
			want: `{"a": "say \"hi\""}`,
		},
		{
			name: "unterminated object",
			in:   `{"a": 1`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
