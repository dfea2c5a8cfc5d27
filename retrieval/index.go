// Package retrieval builds per-question vector indexes and performs hybrid
// credibility/similarity ranking over them.
package retrieval

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/company-researcher/chunking"
	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/vector"
)

// Hit is a single index match: the chunk that matched, its parent document,
// and the cosine distance to the query.
type Hit struct {
	Doc      document.Document
	Chunk    document.Chunk
	Distance float32
}

// Index is a populated vector store with the chunk-to-document mapping
// needed to resolve matches back to their sources.
type Index struct {
	store    vector.Store
	embedder vector.Embedder
	docs     map[string]document.Document
	chunks   map[string]document.Chunk
}

// BuildIndex chunks the documents, embeds every chunk, and loads the store.
// Each call starts from an empty store so evidence never leaks across
// retrieval rounds.
func BuildIndex(ctx context.Context, store vector.Store, embedder vector.Embedder, chunker chunking.Chunker, docs []document.Document) (*Index, error) {
	if err := store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear store: %w", err)
	}

	idx := &Index{
		store:    store,
		embedder: embedder,
		docs:     make(map[string]document.Document),
		chunks:   make(map[string]document.Chunk),
	}

	var texts []string
	var pending []document.Chunk
	for i := range docs {
		doc := docs[i]
		document.EnsureID(&doc)
		idx.docs[doc.ID] = doc

		chunks, err := chunker.Chunk(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
		}
		for _, c := range chunks {
			// Embedding APIs reject empty input; a blank document must not
			// sink the whole round.
			if c.Text == "" {
				continue
			}
			pending = append(pending, c)
			texts = append(texts, c.Text)
		}
	}

	if len(pending) == 0 {
		return idx, nil
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(pending))
	}

	for i, c := range pending {
		idx.chunks[c.ID] = c
		emb := &vector.Embedding{ID: c.ID, Vector: vectors[i], Text: c.Text}
		if err := idx.store.AddEmbedding(ctx, emb); err != nil {
			return nil, fmt.Errorf("add embedding %s: %w", c.ID, err)
		}
	}
	return idx, nil
}

// Query embeds the question and returns the topK nearest chunks with their
// parent documents attached. Distance is 1 minus cosine similarity, clamped
// to [0, 1].
func (idx *Index) Query(ctx context.Context, query string, topK int) ([]Hit, error) {
	vec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := idx.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		chunk, ok := idx.chunks[m.Embedding.ID]
		if !ok {
			continue
		}
		doc, ok := idx.docs[chunk.DocumentID]
		if !ok {
			continue
		}
		dist := 1 - m.Similarity
		if dist < 0 {
			dist = 0
		}
		if dist > 1 {
			dist = 1
		}
		hits = append(hits, Hit{Doc: doc, Chunk: chunk, Distance: dist})
	}
	return hits, nil
}

// Size reports how many chunks the index holds.
func (idx *Index) Size(ctx context.Context) (int, error) {
	return idx.store.Count(ctx)
}
