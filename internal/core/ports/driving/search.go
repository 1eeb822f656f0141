package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// RetrievalService provides hybrid retrieval to external actors.
type RetrievalService interface {
	// Build constructs both indexes over the corpus. Allowed once.
	Build(ctx context.Context) error

	// Search ranks items against free text.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchSimilar ranks items against the assembled text of an existing item,
	// excluding that item and exact textual duplicates.
	SearchSimilar(ctx context.Context, itemID string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchQuestion ranks items against a question given as group context and stem.
	SearchQuestion(ctx context.Context, groupContext, stem string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Items iterates the corpus in item-index order.
	Items() iter.Seq2[int, domain.Item]

	// Item returns the item with the given external ID, or domain.ErrNotFound.
	Item(id string) (domain.Item, error)

	// State returns the engine lifecycle state.
	State() domain.EngineState
}
