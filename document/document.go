package document

import (
	"fmt"
	"sync/atomic"
)

// SourceWeb marks documents that came from the web search provider. Documents
// from any other source receive a fixed first-party trust prior during
// retrieval.
const SourceWeb = "web"

// Document represents one piece of evidence considered during answer
// generation. Created by the collector, enriched in place by the credibility
// scorer, consumed read-only by the retriever and generator.
type Document struct {
	ID            string   `json:"id"`
	URL           string   `json:"url,omitempty"`
	Title         string   `json:"title,omitempty"`
	Text          string   `json:"text"`
	Summary       string   `json:"summary,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Author        string   `json:"author,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	Source        string   `json:"source,omitempty"`

	// Credibility is a trust score in [0,1]; nil until the scorer has run.
	Credibility *float64 `json:"credibility,omitempty"`
}

// Chunk represents a slice of a document indexed into a vector store.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	Ordinal    int    `json:"ordinal"`
}

var (
	docCounter   atomic.Int64
	chunkCounter atomic.Int64
)

// EnsureID makes sure every document has a stable identifier.
func EnsureID(doc *Document) {
	if doc == nil || doc.ID != "" {
		return
	}
	doc.ID = fmt.Sprintf("doc_%d", docCounter.Add(1))
}

// NextChunkID returns a globally unique chunk identifier derived from the
// document ID.
func NextChunkID(docID string) string {
	next := chunkCounter.Add(1)
	if docID == "" {
		return fmt.Sprintf("chunk_%d", next)
	}
	return fmt.Sprintf("%s_chunk_%d", docID, next)
}

// SetCredibility stores a score, clamped to [0,1].
func (d *Document) SetCredibility(score float64) {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	d.Credibility = &score
}

// CredibilityOr returns the score, or def when the document is unscored.
func (d Document) CredibilityOr(def float64) float64 {
	if d.Credibility == nil {
		return def
	}
	return *d.Credibility
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	if d.Highlights != nil {
		out.Highlights = append([]string(nil), d.Highlights...)
	}
	if d.Credibility != nil {
		score := *d.Credibility
		out.Credibility = &score
	}
	return out
}
