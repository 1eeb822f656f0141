package services

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
)

// normEpsilon keeps min-max normalisation finite when all candidates score alike.
const normEpsilon = 1e-8

// FusedHit is one candidate after blending.
type FusedHit struct {
	// Index is the item index.
	Index int

	// Score is the blended hybrid score.
	Score float64

	// Vector is the raw vector similarity.
	Vector float64

	// Lexical is the BM25 score normalised over the candidate set.
	Lexical float64
}

// Fuse blends vector candidates with lexical scores.
//
// Lexical scores are min-max normalised over the candidates only, vector
// similarities are used as they are, and the blend is
// alpha*vector + (1-alpha)*lexical. The result is sorted by score descending,
// ties broken by ascending item index, and truncated to topK.
//
// lexical must hold one score per corpus item.
func Fuse(candidates []driven.VectorHit, lexical []float64, alpha float64, topK int) ([]FusedHit, error) {
	if err := domain.ValidateAlpha(alpha); err != nil {
		return nil, err
	}
	if topK < 0 {
		return nil, fmt.Errorf("%w: top_k must be >= 0, got %d", domain.ErrInvalidArgument, topK)
	}
	if len(candidates) == 0 || topK == 0 {
		return []FusedHit{}, nil
	}

	lo, hi := 0.0, 0.0
	for i, c := range candidates {
		if c.Index < 0 || c.Index >= len(lexical) {
			return nil, fmt.Errorf("%w: candidate %d outside %d lexical scores",
				domain.ErrIndexMismatch, c.Index, len(lexical))
		}
		s := lexical[c.Index]
		if i == 0 || s < lo {
			lo = s
		}
		if i == 0 || s > hi {
			hi = s
		}
	}
	span := hi - lo + normEpsilon

	fused := make([]FusedHit, len(candidates))
	for i, c := range candidates {
		norm := (lexical[c.Index] - lo) / span
		fused[i] = FusedHit{
			Index:   c.Index,
			Score:   alpha*c.Similarity + (1-alpha)*norm,
			Vector:  c.Similarity,
			Lexical: norm,
		}
	}

	slices.SortFunc(fused, func(a, b FusedHit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}
