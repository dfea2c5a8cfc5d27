// Package session holds per-thread research state and the persistence
// interface for checkpointing it.
package session

import (
	"context"
	"time"

	"github.com/sweetpotato0/company-researcher/agents"
	"github.com/sweetpotato0/company-researcher/document"
)

// State is one research thread's full working state. It is checkpointed
// after every workflow step so a thread can be inspected or resumed.
type State struct {
	ThreadID         string               `json:"thread_id"`
	Question         string               `json:"question"`
	FollowUpQuestion string               `json:"follow_up_question,omitempty"`
	Generation       string               `json:"generation,omitempty"`
	Complete         bool                 `json:"complete"`
	Metric           *agents.Metric       `json:"metric,omitempty"`
	Documents        []document.Document  `json:"documents,omitempty"`
	WebResults       []document.Document  `json:"web_results,omitempty"`
	RetryCount       int                  `json:"retry_count"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.Metric != nil {
		m := *s.Metric
		out.Metric = &m
	}
	out.Documents = cloneDocs(s.Documents)
	out.WebResults = cloneDocs(s.WebResults)
	return &out
}

func cloneDocs(docs []document.Document) []document.Document {
	if docs == nil {
		return nil
	}
	out := make([]document.Document, len(docs))
	for i := range docs {
		out[i] = docs[i].Clone()
	}
	return out
}

// Store persists thread state keyed by thread ID.
type Store interface {
	// Save writes the state, replacing any previous checkpoint.
	Save(ctx context.Context, state *State) error
	// Load returns the state, or errors.ErrNotFound if the thread does
	// not exist.
	Load(ctx context.Context, threadID string) (*State, error)
	// Delete removes the thread. Deleting a missing thread is not an
	// error.
	Delete(ctx context.Context, threadID string) error
	// List returns all known thread IDs.
	List(ctx context.Context) ([]string, error)
	// Exists reports whether the thread has a checkpoint.
	Exists(ctx context.Context, threadID string) (bool, error)
	// Count returns the number of stored threads.
	Count(ctx context.Context) (int, error)
}
