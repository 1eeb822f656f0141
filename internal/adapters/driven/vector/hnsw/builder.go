package hnsw

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
)

// Ensure Builder implements the interface.
var _ driven.VectorIndexBuilder = (*Builder)(nil)

// maxLevelCap bounds node levels; with M >= 2 reaching it is vanishingly rare.
const maxLevelCap = 16

// Builder constructs HNSW graphs with fixed parameters.
type Builder struct {
	params domain.GraphParams
}

// NewBuilder validates the construction parameters.
func NewBuilder(params domain.GraphParams) (*Builder, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	return &Builder{params: params}, nil
}

// Build normalises vectors and inserts them in order; vectors[i] becomes node i.
// Every vector must have the length of the first.
func (b *Builder) Build(ctx context.Context, vectors [][]float32) (driven.VectorIndex, error) {
	params := b.params
	params.Dimension = 0
	g := &Graph{params: params, entry: -1}
	if len(vectors) == 0 {
		return g, nil
	}
	if len(vectors) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d vectors exceed the graph capacity", domain.ErrInvalidArgument, len(vectors))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty embedding for item 0", domain.ErrInvalidArgument)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &domain.DimensionMismatchError{Index: i, Want: dim, Got: len(v)}
		}
	}
	g.params.Dimension = dim

	g.vectors = make([][]float32, len(vectors))
	for i, v := range vectors {
		g.vectors[i] = normalize(v)
	}
	g.levels = assignLevels(len(vectors), params.M, params.Seed)
	g.neighbors = make([][][]int32, len(vectors))

	for i := range vectors {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		g.insert(int32(i)) //nolint:gosec // bounded by MaxInt32 above
	}

	return g, nil
}

// assignLevels draws floor(-ln(U) * mL) per node with mL = 1/ln(M).
func assignLevels(n, m int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // deterministic layout, not security
	ml := 1 / math.Log(float64(m))
	levels := make([]int, n)
	for i := range levels {
		u := 1 - rng.Float64() // (0, 1]
		levels[i] = min(int(math.Floor(-math.Log(u)*ml)), maxLevelCap)
	}
	return levels
}

// Restore rebuilds a graph from a snapshot after checking its structure.
func (b *Builder) Restore(snapshot domain.GraphSnapshot) (driven.VectorIndex, error) {
	if err := validateParams(snapshot.Params); err != nil {
		return nil, err
	}

	n := len(snapshot.Vectors)
	if len(snapshot.Levels) != n || len(snapshot.Neighbors) != n {
		return nil, fmt.Errorf("%w: %d vectors, %d levels, %d neighbour lists",
			domain.ErrIndexMismatch, n, len(snapshot.Levels), len(snapshot.Neighbors))
	}
	if n == 0 {
		params := snapshot.Params
		params.Dimension = 0
		return &Graph{params: params, entry: -1}, nil
	}
	if snapshot.EntryPoint < 0 || snapshot.EntryPoint >= n ||
		snapshot.Levels[snapshot.EntryPoint] != snapshot.MaxLevel {
		return nil, fmt.Errorf("%w: entry point %d at level %d",
			domain.ErrIndexMismatch, snapshot.EntryPoint, snapshot.MaxLevel)
	}

	dim := snapshot.Params.Dimension
	for i, v := range snapshot.Vectors {
		if len(v) != dim {
			return nil, &domain.DimensionMismatchError{Index: i, Want: dim, Got: len(v)}
		}
		if snapshot.Levels[i] < 0 || snapshot.Levels[i] > snapshot.MaxLevel ||
			len(snapshot.Neighbors[i]) != snapshot.Levels[i]+1 {
			return nil, fmt.Errorf("%w: node %d has level %d and %d layers",
				domain.ErrIndexMismatch, i, snapshot.Levels[i], len(snapshot.Neighbors[i]))
		}
		for _, layer := range snapshot.Neighbors[i] {
			for _, nb := range layer {
				if nb < 0 || int(nb) >= n {
					return nil, fmt.Errorf("%w: node %d links to %d", domain.ErrIndexMismatch, i, nb)
				}
			}
		}
	}

	// Snapshot deep-copies the arena so the caller keeps ownership of its slices.
	view := &Graph{
		params:    snapshot.Params,
		vectors:   snapshot.Vectors,
		levels:    snapshot.Levels,
		neighbors: snapshot.Neighbors,
	}
	owned := view.Snapshot()

	g := &Graph{
		params:    snapshot.Params,
		vectors:   owned.Vectors,
		levels:    owned.Levels,
		neighbors: owned.Neighbors,
		entry:     snapshot.EntryPoint,
		maxLevel:  snapshot.MaxLevel,
	}
	return g, nil
}

func validateParams(p domain.GraphParams) error {
	if p.M < 2 {
		return fmt.Errorf("%w: m must be >= 2, got %d", domain.ErrInvalidArgument, p.M)
	}
	if p.EfConstruction < 1 || p.EfSearch < 1 {
		return fmt.Errorf("%w: ef_construction and ef_search must be >= 1, got %d and %d",
			domain.ErrInvalidArgument, p.EfConstruction, p.EfSearch)
	}
	return nil
}
