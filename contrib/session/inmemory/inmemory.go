// Package inmemory is a map-backed session store for tests and single
// process runs.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweetpotato0/company-researcher/errors"
	"github.com/sweetpotato0/company-researcher/session"
)

// Store keeps thread state in process memory.
type Store struct {
	mu      sync.RWMutex
	threads map[string]*session.State
}

// New creates an empty store.
func New() *Store {
	return &Store{threads: make(map[string]*session.State)}
}

// Save stores a deep copy of the state.
func (s *Store) Save(ctx context.Context, state *session.State) error {
	if state == nil || state.ThreadID == "" {
		return fmt.Errorf("save session: %w", errors.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[state.ThreadID] = state.Clone()
	return nil
}

// Load returns a deep copy of the stored state.
func (s *Store) Load(ctx context.Context, threadID string) (*session.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("load session %s: %w", threadID, errors.ErrNotFound)
	}
	return state.Clone(), nil
}

// Delete removes the thread if present.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}

// List returns all thread IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	return ids, nil
}

// Exists reports whether the thread has a checkpoint.
func (s *Store) Exists(ctx context.Context, threadID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.threads[threadID]
	return ok, nil
}

// Count returns the number of stored threads.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads), nil
}
