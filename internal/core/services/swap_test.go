package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

func TestSwappableRetrieval_Empty(t *testing.T) {
	s := NewSwappableRetrieval(nil)
	ctx := context.Background()

	assert.Equal(t, domain.StateUninitialized, s.State())
	_, err := s.Search(ctx, "copper", domain.SearchOptions{TopK: 1})
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = s.SearchSimilar(ctx, "1", domain.SearchOptions{TopK: 1})
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = s.Item("1")
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.ErrorIs(t, s.Build(ctx), domain.ErrNotReady)

	count := 0
	for range s.Items() {
		count++
	}
	assert.Zero(t, count)
}

func TestSwappableRetrieval_ForwardsAndSwaps(t *testing.T) {
	ctx := context.Background()
	first := buildEngine(t, chemistryCorpus(t))
	second := buildEngine(t, examCorpus(t))

	s := NewSwappableRetrieval(first)
	assert.Equal(t, domain.StateReady, s.State())

	results, err := s.Search(ctx, "copper nitric acid", domain.SearchOptions{TopK: 1, Alpha: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(results))

	prev := s.Swap(second)
	assert.Same(t, first, prev)
	assert.Same(t, second, s.Current())

	item, err := s.Item("q6")
	require.NoError(t, err)
	assert.Equal(t, "history", item.Subject)

	_, err = s.Item("1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	results, err = s.SearchQuestion(ctx,
		"Read the passage about the industrial revolution.", "Which fuel powered early steam engines?",
		domain.SearchOptions{TopK: 1, Alpha: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"q6"}, ids(results))
}

func TestSwappableRetrieval_ConcurrentSwap(t *testing.T) {
	ctx := context.Background()
	engines := []*Engine{buildEngine(t, chemistryCorpus(t)), buildEngine(t, chemistryCorpus(t))}
	s := NewSwappableRetrieval(engines[0])

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 20 {
				if i == 0 {
					s.Swap(engines[len(engines)-1])
					continue
				}
				_, err := s.Search(ctx, "sodium water", domain.SearchOptions{TopK: 2, Alpha: 0.5})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
}
