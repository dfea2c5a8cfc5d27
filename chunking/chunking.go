package chunking

import (
	"context"
	"strings"

	"github.com/sweetpotato0/company-researcher/document"
)

// Chunker splits documents into chunks that can be embedded and indexed.
type Chunker interface {
	Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error)
}

type Options struct {
	ChunkSize int
	Overlap   int
	Separator string
}

// Option customizes the window chunker.
type Option func(*Options)

// WithChunkSize overrides the default chunk size (characters).
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithOverlap configures overlap (characters) between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.Overlap = overlap
		}
	}
}

// WithSeparator sets the logical separator used before windowing.
func WithSeparator(sep string) Option {
	return func(o *Options) {
		if sep != "" {
			o.Separator = sep
		}
	}
}

// WindowChunker splits document text into fixed-size overlapping character
// windows. Evidence indexes are built fresh per search, so defaults stay
// small: 1000-character windows with 50 characters of overlap.
type WindowChunker struct {
	size    int
	overlap int
	sep     string
}

// NewWindowChunker constructs a chunker with the collector defaults.
func NewWindowChunker(opts ...Option) *WindowChunker {
	cfg := &Options{
		ChunkSize: 1000,
		Overlap:   50,
		Separator: "\n\n",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 2
	}
	return &WindowChunker{
		size:    cfg.ChunkSize,
		overlap: cfg.Overlap,
		sep:     cfg.Separator,
	}
}

// Chunk splits the document into bounded pieces.
func (c *WindowChunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	document.EnsureID(&doc)

	parts := strings.Split(doc.Text, c.sep)
	chunks := make([]document.Chunk, 0, len(parts))
	ordinal := 0

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		// Window over runes, not bytes, so multi-byte text never splits
		// mid-character.
		runes := []rune(part)
		for len(runes) > c.size {
			ordinal++
			window := string(runes[:c.size])
			runes = runes[c.size-c.overlap:]
			chunks = append(chunks, newChunk(doc, ordinal, window))
		}
		ordinal++
		chunks = append(chunks, newChunk(doc, ordinal, string(runes)))
	}

	if len(chunks) == 0 {
		chunks = append(chunks, newChunk(doc, 1, doc.Text))
	}

	return chunks, nil
}

func newChunk(doc document.Document, ordinal int, text string) document.Chunk {
	return document.Chunk{
		ID:         document.NextChunkID(doc.ID),
		DocumentID: doc.ID,
		Text:       strings.TrimSpace(text),
		Ordinal:    ordinal,
	}
}
