package driven

import (
	"context"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// VectorIndex provides approximate nearest neighbour search over unit vectors.
// Backed by a pure-Go HNSW graph. Read-only after construction.
type VectorIndex interface {
	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the vector length.
	Dimension() int

	// Search finds up to k nearest neighbours of query by inner product.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Params returns the parameters the graph was built with.
	Params() domain.GraphParams

	// Snapshot exports the graph for persistence.
	Snapshot() domain.GraphSnapshot
}

// VectorIndexBuilder constructs vector indexes.
type VectorIndexBuilder interface {
	// Build inserts vectors in order; vectors[i] becomes item index i.
	Build(ctx context.Context, vectors [][]float32) (VectorIndex, error)

	// Restore rebuilds a graph from a snapshot without re-inserting.
	Restore(snapshot domain.GraphSnapshot) (VectorIndex, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Index is the matched item index.
	Index int

	// Similarity is the inner product of the unit vectors, in [-1, 1].
	Similarity float64
}
