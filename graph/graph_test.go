package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type testState struct {
	steps []string
	count int
}

func TestLinearRun(t *testing.T) {
	g, err := NewBuilder[*testState]().
		AddNode("a", func(ctx context.Context, s *testState) (*testState, error) {
			s.steps = append(s.steps, "a")
			return s, nil
		}).
		AddNode("b", func(ctx context.Context, s *testState) (*testState, error) {
			s.steps = append(s.steps, "b")
			return s, nil
		}).
		AddEdge("a", "b").
		AddEdge("b", End).
		SetEntry("a").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	state, err := g.Run(context.Background(), &testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.Join(state.steps, ","); got != "a,b" {
		t.Errorf("expected execution order a,b, got %s", got)
	}
}

func TestConditionalRouting(t *testing.T) {
	g, err := NewBuilder[*testState]().
		AddNode("loop", func(ctx context.Context, s *testState) (*testState, error) {
			s.count++
			return s, nil
		}).
		AddConditionalEdge("loop", func(ctx context.Context, s *testState) (string, error) {
			if s.count >= 3 {
				return "done", nil
			}
			return "again", nil
		}, map[string]string{
			"done":  End,
			"again": "loop",
		}).
		SetEntry("loop").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	state, err := g.Run(context.Background(), &testState{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state.count != 3 {
		t.Errorf("expected 3 loop iterations, got %d", state.count)
	}
}

func TestMaxVisitsGuard(t *testing.T) {
	g, err := NewBuilder[*testState]().
		AddNode("spin", func(ctx context.Context, s *testState) (*testState, error) {
			return s, nil
		}).
		AddEdge("spin", "spin").
		SetEntry("spin").
		SetMaxVisits(5).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := g.Run(context.Background(), &testState{}); err == nil {
		t.Error("expected error from cyclic graph exceeding max visits")
	}
}

func TestNodeErrorStopsRun(t *testing.T) {
	wantErr := errors.New("node broke")
	g, err := NewBuilder[*testState]().
		AddNode("a", func(ctx context.Context, s *testState) (*testState, error) {
			return s, wantErr
		}).
		AddEdge("a", End).
		SetEntry("a").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := g.Run(context.Background(), &testState{}); !errors.Is(err, wantErr) {
		t.Errorf("expected node error, got %v", err)
	}
}

func TestHookRunsAfterEveryNode(t *testing.T) {
	var hooked []string
	g, err := NewBuilder[*testState]().
		AddNode("a", func(ctx context.Context, s *testState) (*testState, error) {
			return s, nil
		}).
		AddNode("b", func(ctx context.Context, s *testState) (*testState, error) {
			return s, nil
		}).
		AddEdge("a", "b").
		AddEdge("b", End).
		SetEntry("a").
		SetHook(func(ctx context.Context, node string, s *testState) error {
			hooked = append(hooked, node)
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := g.Run(context.Background(), &testState{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.Join(hooked, ","); got != "a,b" {
		t.Errorf("expected hook after a and b, got %s", got)
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Graph[*testState], error)
	}{
		{
			name: "no entry",
			build: func() (*Graph[*testState], error) {
				return NewBuilder[*testState]().
					AddNode("a", func(ctx context.Context, s *testState) (*testState, error) { return s, nil }).
					AddEdge("a", End).
					Build()
			},
		},
		{
			name: "unknown successor",
			build: func() (*Graph[*testState], error) {
				return NewBuilder[*testState]().
					AddNode("a", func(ctx context.Context, s *testState) (*testState, error) { return s, nil }).
					AddEdge("a", "missing").
					SetEntry("a").
					Build()
			},
		},
		{
			name: "dangling node",
			build: func() (*Graph[*testState], error) {
				return NewBuilder[*testState]().
					AddNode("a", func(ctx context.Context, s *testState) (*testState, error) { return s, nil }).
					SetEntry("a").
					Build()
			},
		},
		{
			name: "duplicate node",
			build: func() (*Graph[*testState], error) {
				return NewBuilder[*testState]().
					AddNode("a", func(ctx context.Context, s *testState) (*testState, error) { return s, nil }).
					AddNode("a", func(ctx context.Context, s *testState) (*testState, error) { return s, nil }).
					AddEdge("a", End).
					SetEntry("a").
					Build()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build(); err == nil {
				t.Error("expected build error")
			}
		})
	}
}

func TestUnroutableConditionKey(t *testing.T) {
	g, err := NewBuilder[*testState]().
		AddNode("a", func(ctx context.Context, s *testState) (*testState, error) {
			return s, nil
		}).
		AddConditionalEdge("a", func(ctx context.Context, s *testState) (string, error) {
			return "nowhere", nil
		}, map[string]string{"done": End}).
		SetEntry("a").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := g.Run(context.Background(), &testState{}); err == nil {
		t.Error("expected error for unroutable condition key")
	}
}
