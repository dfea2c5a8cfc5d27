package inmemory

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/errors"
	"github.com/sweetpotato0/company-researcher/session"
)

func TestSaveAndLoad(t *testing.T) {
	store := New()
	ctx := context.Background()

	state := &session.State{
		ThreadID:   "t1",
		Question:   "what is revenue?",
		Generation: "answer",
		RetryCount: 1,
		Documents:  []document.Document{{ID: "d1", Text: "evidence"}},
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Question != "what is revenue?" || loaded.RetryCount != 1 {
		t.Errorf("loaded state mismatch: %+v", loaded)
	}
	if len(loaded.Documents) != 1 || loaded.Documents[0].ID != "d1" {
		t.Errorf("documents not persisted: %+v", loaded.Documents)
	}
}

func TestLoadReturnsIsolatedCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	state := &session.State{ThreadID: "t1", Question: "original"}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating either the saved value or a loaded copy must not affect
	// the stored checkpoint.
	state.Question = "mutated after save"
	first, err := store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	first.Question = "mutated after load"

	second, err := store.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if second.Question != "original" {
		t.Errorf("stored state was mutated: %q", second.Question)
	}
}

func TestLoadMissingThread(t *testing.T) {
	store := New()

	_, err := store.Load(context.Background(), "missing")
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRejectsInvalidState(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Save(ctx, nil); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil state, got %v", err)
	}
	if err := store.Save(ctx, &session.State{}); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty thread id, got %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Save(ctx, &session.State{ThreadID: "t1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "t1"); err != nil {
		t.Errorf("second delete must not fail: %v", err)
	}

	exists, err := store.Exists(ctx, "t1")
	if err != nil || exists {
		t.Errorf("thread should be gone, exists=%v err=%v", exists, err)
	}
}

func TestListAndCount(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, &session.State{ThreadID: id}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	count, err := store.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("expected count 3, got %d (err %v)", count, err)
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 ids, got %d", len(ids))
	}
}
