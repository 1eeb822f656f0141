package domain

import (
	"fmt"
	"math"
)

// SearchOptions configures a single query.
type SearchOptions struct {
	// TopK is the maximum number of results. Zero returns no results.
	TopK int

	// Alpha is the vector weight of the blend, in [0, 1].
	// 1 ranks purely by vector similarity, 0 purely by normalised BM25.
	Alpha float64
}

// Validate rejects out-of-range options instead of clamping them.
func (o SearchOptions) Validate() error {
	if o.TopK < 0 {
		return fmt.Errorf("%w: top_k must be >= 0, got %d", ErrInvalidArgument, o.TopK)
	}
	return ValidateAlpha(o.Alpha)
}

// ValidateAlpha checks that a blend weight lies in [0, 1].
func ValidateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return fmt.Errorf("%w: alpha must be within [0, 1], got %v", ErrInvalidArgument, alpha)
	}
	return nil
}

// SearchResult is one hydrated hit.
type SearchResult struct {
	// ID is the item's external identifier.
	ID string `json:"id"`

	// Year is the item's exam year.
	Year string `json:"year"`

	// Subject is the item's exam subject.
	Subject string `json:"subject"`

	// Content is the assembled text of the item.
	Content string `json:"content"`

	// Score is the final hybrid score.
	Score float64 `json:"score"`

	// Index is the item index within the corpus.
	Index int `json:"-"`
}

// EngineState is the lifecycle state of a retrieval engine.
type EngineState int

// Engine lifecycle states.
const (
	// StateUninitialized is the state before Build or Restore.
	StateUninitialized EngineState = iota

	// StateBuilding is held while the indexes are constructed.
	StateBuilding

	// StateReady means both indexes are built and queryable.
	StateReady

	// StateFailed means the build failed; nothing is queryable.
	StateFailed
)

// String returns the state name.
func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return unknownDescription
	}
}
