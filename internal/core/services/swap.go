package services

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driving"
)

// Ensure SwappableRetrieval implements the interface.
var _ driving.RetrievalService = (*SwappableRetrieval)(nil)

type retrievalRef struct {
	svc driving.RetrievalService
}

// SwappableRetrieval forwards every call to the current retrieval service.
// Swap replaces it atomically; calls already running finish on the old one.
type SwappableRetrieval struct {
	current atomic.Pointer[retrievalRef]
}

// NewSwappableRetrieval creates a forwarder that starts with svc.
func NewSwappableRetrieval(svc driving.RetrievalService) *SwappableRetrieval {
	s := &SwappableRetrieval{}
	s.current.Store(&retrievalRef{svc: svc})
	return s
}

// Swap installs next and returns the service it replaced.
func (s *SwappableRetrieval) Swap(next driving.RetrievalService) driving.RetrievalService {
	prev := s.current.Swap(&retrievalRef{svc: next})
	if prev == nil {
		return nil
	}
	return prev.svc
}

// Current returns the service calls are forwarded to.
func (s *SwappableRetrieval) Current() driving.RetrievalService {
	if ref := s.current.Load(); ref != nil {
		return ref.svc
	}
	return nil
}

func (s *SwappableRetrieval) target() (driving.RetrievalService, error) {
	svc := s.Current()
	if svc == nil {
		return nil, fmt.Errorf("%w: no engine installed", domain.ErrNotReady)
	}
	return svc, nil
}

// Build builds the current service.
func (s *SwappableRetrieval) Build(ctx context.Context) error {
	svc, err := s.target()
	if err != nil {
		return err
	}
	return svc.Build(ctx)
}

// Search forwards to the current service.
func (s *SwappableRetrieval) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	svc, err := s.target()
	if err != nil {
		return nil, err
	}
	return svc.Search(ctx, query, opts)
}

// SearchSimilar forwards to the current service.
func (s *SwappableRetrieval) SearchSimilar(
	ctx context.Context, itemID string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	svc, err := s.target()
	if err != nil {
		return nil, err
	}
	return svc.SearchSimilar(ctx, itemID, opts)
}

// SearchQuestion forwards to the current service.
func (s *SwappableRetrieval) SearchQuestion(
	ctx context.Context, groupContext, stem string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	svc, err := s.target()
	if err != nil {
		return nil, err
	}
	return svc.SearchQuestion(ctx, groupContext, stem, opts)
}

// Items iterates the items of the service current at call time.
func (s *SwappableRetrieval) Items() iter.Seq2[int, domain.Item] {
	svc := s.Current()
	if svc == nil {
		return func(func(int, domain.Item) bool) {}
	}
	return svc.Items()
}

// Item forwards to the current service.
func (s *SwappableRetrieval) Item(id string) (domain.Item, error) {
	svc, err := s.target()
	if err != nil {
		return domain.Item{}, err
	}
	return svc.Item(id)
}

// State reports the state of the current service.
func (s *SwappableRetrieval) State() domain.EngineState {
	svc := s.Current()
	if svc == nil {
		return domain.StateUninitialized
	}
	return svc.State()
}
