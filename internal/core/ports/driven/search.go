package driven

import (
	"context"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// LexicalIndex scores every corpus item against a tokenised query.
// Backed by an in-memory BM25 arena. Read-only after construction.
type LexicalIndex interface {
	// Len returns the number of indexed items.
	Len() int

	// Tokenize splits query text with the build-time policy.
	Tokenize(text string) []string

	// ScoreAll returns one non-negative score per item, indexed by item index.
	ScoreAll(tokens []string) []float64

	// Params returns the parameters the index was built with.
	Params() domain.LexicalParams

	// Snapshot exports the index state for persistence.
	Snapshot() domain.LexicalSnapshot
}

// LexicalIndexBuilder constructs lexical indexes.
type LexicalIndexBuilder interface {
	// Build indexes texts; texts[i] becomes item index i.
	Build(ctx context.Context, texts []string) (LexicalIndex, error)

	// Restore rebuilds an index from a snapshot without re-tokenising.
	Restore(snapshot domain.LexicalSnapshot) (LexicalIndex, error)
}
