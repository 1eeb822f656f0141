package bm25

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
)

// Ensure Builder implements the interface.
var _ driven.LexicalIndexBuilder = (*Builder)(nil)

// minParallelDocs is the corpus size below which tokenization stays on the calling goroutine.
const minParallelDocs = 256

// Builder constructs BM25 indexes with fixed parameters.
type Builder struct {
	params    domain.LexicalParams
	tokenizer driven.Tokenizer
	workers   int
}

// NewBuilder validates params and resolves the tokenizer.
// workers bounds the tokenization pool; values below 1 use half the CPUs.
func NewBuilder(params domain.LexicalParams, workers int) (*Builder, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	tokenizer, err := NewTokenizer(params.Tokenizer)
	if err != nil {
		return nil, err
	}
	params.Tokenizer = tokenizer.Name()

	if workers < 1 {
		workers = max(runtime.NumCPU()/2, 1)
	}
	return &Builder{params: params, tokenizer: tokenizer, workers: workers}, nil
}

// Build tokenizes texts and assembles the postings arena.
// Item i of the index is texts[i].
func (b *Builder) Build(ctx context.Context, texts []string) (driven.LexicalIndex, error) {
	tokens, err := b.tokenizeAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	docLens := make([]int, len(texts))
	postings := make(map[string][]domain.Posting)
	tf := make(map[string]int)

	for i, terms := range tokens {
		docLens[i] = len(terms)
		clear(tf)
		order := make([]string, 0, len(terms))
		for _, term := range terms {
			if tf[term] == 0 {
				order = append(order, term)
			}
			tf[term]++
		}
		// Items are visited in index order, so every list stays ascending.
		for _, term := range order {
			postings[term] = append(postings[term], domain.Posting{Index: i, TF: tf[term]})
		}
	}

	return newIndex(b.params, b.tokenizer, docLens, postings), nil
}

// tokenizeAll tokenizes every text into its own slot on an ants pool.
func (b *Builder) tokenizeAll(ctx context.Context, texts []string) ([][]string, error) {
	out := make([][]string, len(texts))

	if len(texts) < minParallelDocs || b.workers == 1 {
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = b.tokenizer.Tokenize(text)
		}
		return out, nil
	}

	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return nil, fmt.Errorf("create tokenizer pool: %w", err)
	}
	defer pool.Release()

	chunk := (len(texts) + b.workers - 1) / b.workers
	var wg sync.WaitGroup
	for start := 0; start < len(texts); start += chunk {
		end := min(start+chunk, len(texts))
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				out[i] = b.tokenizer.Tokenize(texts[i])
			}
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit tokenization: %w", submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Restore rebuilds an index from a snapshot. The postings are checked
// against the recorded document lengths.
func (b *Builder) Restore(snapshot domain.LexicalSnapshot) (driven.LexicalIndex, error) {
	if err := validateParams(snapshot.Params); err != nil {
		return nil, err
	}
	tokenizer, err := NewTokenizer(snapshot.Params.Tokenizer)
	if err != nil {
		return nil, err
	}

	n := len(snapshot.DocLengths)
	seen := make([]int, n)
	postings := make(map[string][]domain.Posting, len(snapshot.Postings))
	for term, list := range snapshot.Postings {
		prev := -1
		for _, p := range list {
			if p.Index <= prev || p.Index >= n || p.TF < 1 {
				return nil, fmt.Errorf("%w: bad posting %+v for term %q", domain.ErrIndexMismatch, p, term)
			}
			prev = p.Index
			seen[p.Index] += p.TF
		}
		postings[term] = append([]domain.Posting(nil), list...)
	}
	for i, l := range snapshot.DocLengths {
		if seen[i] != l {
			return nil, fmt.Errorf("%w: item %d has length %d but postings sum to %d",
				domain.ErrIndexMismatch, i, l, seen[i])
		}
	}

	params := snapshot.Params
	params.Tokenizer = tokenizer.Name()
	return newIndex(params, tokenizer, append([]int(nil), snapshot.DocLengths...), postings), nil
}

func validateParams(p domain.LexicalParams) error {
	if math.IsNaN(p.K1) || p.K1 < 0 {
		return fmt.Errorf("%w: k1 must be >= 0, got %v", domain.ErrInvalidArgument, p.K1)
	}
	if math.IsNaN(p.B) || p.B < 0 || p.B > 1 {
		return fmt.Errorf("%w: b must be within [0, 1], got %v", domain.ErrInvalidArgument, p.B)
	}
	return nil
}
