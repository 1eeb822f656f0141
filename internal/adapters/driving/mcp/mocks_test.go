package mcp

import (
	"context"
	"fmt"
	"iter"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.SearchResult
	items   []domain.Item
	err     error

	lastQuery   string
	lastContext string
	lastID      string
	lastOpts    domain.SearchOptions
	calls       []string
}

func (m *mockRetrievalService) Build(_ context.Context) error {
	return m.err
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.calls = append(m.calls, "search")
	m.lastQuery, m.lastOpts = query, opts
	return m.results, m.err
}

func (m *mockRetrievalService) SearchSimilar(
	_ context.Context,
	itemID string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.calls = append(m.calls, "similar")
	m.lastID, m.lastOpts = itemID, opts
	return m.results, m.err
}

func (m *mockRetrievalService) SearchQuestion(
	_ context.Context,
	groupContext, stem string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.calls = append(m.calls, "question")
	m.lastContext, m.lastQuery, m.lastOpts = groupContext, stem, opts
	return m.results, m.err
}

func (m *mockRetrievalService) Items() iter.Seq2[int, domain.Item] {
	return func(yield func(int, domain.Item) bool) {
		for i, item := range m.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

func (m *mockRetrievalService) Item(id string) (domain.Item, error) {
	if m.err != nil {
		return domain.Item{}, m.err
	}
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.Item{}, fmt.Errorf("%w: item %q", domain.ErrNotFound, id)
}

func (m *mockRetrievalService) State() domain.EngineState {
	return domain.StateReady
}
