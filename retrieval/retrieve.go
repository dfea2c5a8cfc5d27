package retrieval

import (
	"context"
	"sort"

	"github.com/sweetpotato0/company-researcher/document"
	"github.com/sweetpotato0/company-researcher/pkg/logging"
)

// trustedSourceCredibility is assigned to documents that did not come from
// web search before the credibility filter runs.
const trustedSourceCredibility = 0.9

// Options tunes hybrid retrieval.
type Options struct {
	// KInit is how many nearest chunks to pull from the index before
	// filtering and re-ranking.
	KInit int
	// KFinal caps the final ranked result.
	KFinal int
	// MinCredibility drops low-trust evidence before ranking.
	MinCredibility float64
	// Alpha balances similarity against credibility; higher favors
	// similarity.
	Alpha float64
}

// DefaultOptions returns the retrieval defaults.
func DefaultOptions() Options {
	return Options{
		KInit:          30,
		KFinal:         15,
		MinCredibility: 0.5,
		Alpha:          0.5,
	}
}

// Retrieve runs the hybrid ranking pipeline: nearest-chunk lookup, trusted
// source credibility assignment, credibility filtering, combined scoring,
// and final truncation. Each returned document carries one chunk's text with
// the parent document's metadata. An empty survivor set is a valid result.
func Retrieve(ctx context.Context, idx *Index, query string, opts Options) ([]document.Document, error) {
	if opts.KInit <= 0 {
		opts.KInit = 30
	}
	if opts.KFinal <= 0 {
		opts.KFinal = 15
	}

	hits, err := idx.Query(ctx, query, opts.KInit)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc   document.Document
		score float64
	}

	survivors := make([]scored, 0, len(hits))
	for _, h := range hits {
		doc := h.Doc.Clone()
		doc.Text = h.Chunk.Text

		if doc.Source != document.SourceWeb {
			doc.SetCredibility(trustedSourceCredibility)
		}
		cred := doc.CredibilityOr(0)
		if cred < opts.MinCredibility {
			continue
		}

		score := (1-opts.Alpha)*(cred/5) + opts.Alpha*(1-float64(h.Distance))
		survivors = append(survivors, scored{doc: doc, score: score})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].score > survivors[j].score
	})

	if len(survivors) > opts.KFinal {
		survivors = survivors[:opts.KFinal]
	}

	logging.WithComponent("retrieval").Debug("hybrid retrieve",
		"hits", len(hits), "survivors", len(survivors), "query_len", len(query))

	out := make([]document.Document, len(survivors))
	for i, s := range survivors {
		out[i] = s.doc
	}
	return out, nil
}
