package pg

import (
	"testing"
)

func TestSessionDerivesIsolatedView(t *testing.T) {
	base := &Store{tableName: "evidence_vectors", dimension: 1536}

	a := base.Session("thread-a")
	b := base.Session("thread-b")

	if a.SessionID() != "thread-a" || b.SessionID() != "thread-b" {
		t.Errorf("session IDs not carried: %q, %q", a.SessionID(), b.SessionID())
	}
	if a.tableName != base.tableName || b.tableName != base.tableName {
		t.Error("session views must share the base table")
	}
	if a.dimension != base.dimension {
		t.Errorf("session view lost dimension: %d", a.dimension)
	}
	if base.SessionID() != "" {
		t.Errorf("base store must not be session-scoped, got %q", base.SessionID())
	}
}

func TestVectorStringRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1, 3.5}

	s := vectorToString(vec)
	if s != "[0.25,-1,3.5]" {
		t.Errorf("unexpected text form: %q", s)
	}

	back, err := stringToVector(s)
	if err != nil {
		t.Fatalf("stringToVector failed: %v", err)
	}
	if len(back) != len(vec) {
		t.Fatalf("expected %d components, got %d", len(vec), len(back))
	}
	for i := range vec {
		if back[i] != vec[i] {
			t.Errorf("component %d: expected %f, got %f", i, vec[i], back[i])
		}
	}
}

func TestStringToVectorRejectsGarbage(t *testing.T) {
	if _, err := stringToVector("[1,two,3]"); err == nil {
		t.Error("expected error for non-numeric component")
	}
	if vec, err := stringToVector("[]"); err != nil || vec != nil {
		t.Errorf("empty vector should parse to nil, got %v, %v", vec, err)
	}
}
