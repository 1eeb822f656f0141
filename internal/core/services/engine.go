package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driving"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.RetrievalService = (*Engine)(nil)

// EngineOptions tunes query execution.
type EngineOptions struct {
	// Overfetch multiplies TopK when asking the vector index for candidates.
	// Values below 1 fall back to domain.DefaultOverfetch.
	Overfetch int
}

// Engine is the hybrid retrieval facade.
//
// It owns one corpus, one lexical index and one vector index. Build (or
// Restore) moves it from Uninitialized to Ready exactly once; after that the
// indexes are read-only and queries may run concurrently.
type Engine struct {
	embedder       driven.EmbeddingService
	lexicalBuilder driven.LexicalIndexBuilder
	vectorBuilder  driven.VectorIndexBuilder
	overfetch      int

	mu      sync.RWMutex
	state   domain.EngineState
	corpus  *domain.Corpus
	lexical driven.LexicalIndex
	vector  driven.VectorIndex
	buildID string
	builtAt time.Time
}

// NewEngine creates an engine over corpus. The corpus may be nil when the
// engine will be restored from a snapshot.
func NewEngine(
	corpus *domain.Corpus,
	embedder driven.EmbeddingService,
	lexicalBuilder driven.LexicalIndexBuilder,
	vectorBuilder driven.VectorIndexBuilder,
	opts EngineOptions,
) *Engine {
	overfetch := opts.Overfetch
	if overfetch < 1 {
		overfetch = domain.DefaultOverfetch
	}
	return &Engine{
		corpus:         corpus,
		embedder:       embedder,
		lexicalBuilder: lexicalBuilder,
		vectorBuilder:  vectorBuilder,
		overfetch:      overfetch,
	}
}

// State returns the engine lifecycle state.
func (e *Engine) State() domain.EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// BuildID returns the identifier of the build that made the engine ready.
func (e *Engine) BuildID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buildID
}

// Len returns the number of items in the corpus.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.corpus.Len()
}

// Items iterates the corpus in item-index order.
func (e *Engine) Items() iter.Seq2[int, domain.Item] {
	e.mu.RLock()
	corpus := e.corpus
	e.mu.RUnlock()
	return corpus.Items()
}

// Item returns the item with the given external ID.
func (e *Engine) Item(id string) (domain.Item, error) {
	e.mu.RLock()
	corpus := e.corpus
	e.mu.RUnlock()

	if corpus == nil {
		return domain.Item{}, fmt.Errorf("%w: item %q", domain.ErrNotFound, id)
	}
	idx, ok := corpus.IndexOf(id)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: item %q", domain.ErrNotFound, id)
	}
	return corpus.At(idx), nil
}

// begin moves the engine into Building, rejecting any second attempt.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != domain.StateUninitialized {
		return fmt.Errorf("%w: engine is %s", domain.ErrInvalidState, e.state)
	}
	e.state = domain.StateBuilding
	return nil
}

// fail records a failed build.
func (e *Engine) fail(err error) error {
	e.mu.Lock()
	e.state = domain.StateFailed
	e.mu.Unlock()
	logger.Warn("Build failed: %v", err)
	return err
}

// Build embeds the corpus in one batch call and builds both indexes in parallel.
// It may be called once; later calls return domain.ErrInvalidState.
func (e *Engine) Build(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}

	logger.Section("Engine Build")
	defer logger.Timed("build")()

	corpus := e.corpus
	if corpus == nil {
		return e.fail(fmt.Errorf("build: %w: no corpus", domain.ErrInvalidState))
	}
	if e.embedder == nil {
		return e.fail(fmt.Errorf("build: %w", domain.ErrEmbeddingUnavailable))
	}
	texts := corpus.Texts()
	logger.Debug("Items: %d, embedding model: %s", len(texts), e.embedder.ModelName())

	var vectors [][]float32
	if len(texts) > 0 {
		done := logger.Timed("embed corpus")
		var err error
		vectors, err = e.embedder.EmbedBatch(ctx, texts)
		done()
		if err != nil {
			return e.fail(fmt.Errorf("build: %w", providerError(err)))
		}
		if len(vectors) != len(texts) {
			return e.fail(fmt.Errorf("build: %w: %d embeddings for %d items",
				domain.ErrIndexMismatch, len(vectors), len(texts)))
		}
	}

	var (
		lexical driven.LexicalIndex
		vector  driven.VectorIndex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer logger.Timed("lexical index")()
		idx, err := e.lexicalBuilder.Build(gctx, texts)
		if err != nil {
			return fmt.Errorf("lexical index: %w", err)
		}
		lexical = idx
		return nil
	})
	g.Go(func() error {
		defer logger.Timed("vector index")()
		idx, err := e.vectorBuilder.Build(gctx, vectors)
		if err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
		vector = idx
		return nil
	})
	if err := g.Wait(); err != nil {
		return e.fail(fmt.Errorf("build: %w", err))
	}

	if err := checkSizes(corpus.Len(), lexical, vector); err != nil {
		return e.fail(fmt.Errorf("build: %w", err))
	}

	e.mu.Lock()
	e.lexical = lexical
	e.vector = vector
	e.buildID = uuid.NewString()
	e.builtAt = time.Now().UTC()
	e.state = domain.StateReady
	e.mu.Unlock()

	logger.Info("Engine ready: %d items, dimension %d", corpus.Len(), vector.Dimension())
	return nil
}

// Restore makes the engine ready from a snapshot without embedding the corpus.
// The snapshot's items replace any corpus given at construction.
func (e *Engine) Restore(snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("restore: %w: nil snapshot", domain.ErrInvalidArgument)
	}
	if err := e.begin(); err != nil {
		return err
	}

	logger.Section("Engine Restore")
	defer logger.Timed("restore")()

	corpus, err := domain.NewCorpus("snapshot", snapshot.Items)
	if err != nil {
		return e.fail(fmt.Errorf("restore: %w", err))
	}
	lexical, err := e.lexicalBuilder.Restore(snapshot.Lexical)
	if err != nil {
		return e.fail(fmt.Errorf("restore lexical index: %w", err))
	}
	vector, err := e.vectorBuilder.Restore(snapshot.Vector)
	if err != nil {
		return e.fail(fmt.Errorf("restore vector index: %w", err))
	}
	if err := checkSizes(corpus.Len(), lexical, vector); err != nil {
		return e.fail(fmt.Errorf("restore: %w", err))
	}

	if e.embedder != nil {
		if dims := e.embedder.Dimensions(); dims > 0 && vector.Len() > 0 && dims != vector.Dimension() {
			logger.Warn("Embedder produces %d dimensions but snapshot has %d; queries will fail",
				dims, vector.Dimension())
		}
	}

	e.mu.Lock()
	e.corpus = corpus
	e.lexical = lexical
	e.vector = vector
	e.buildID = snapshot.BuildID
	e.builtAt = snapshot.CreatedAt
	e.state = domain.StateReady
	e.mu.Unlock()

	logger.Info("Engine restored: build %s, %d items", snapshot.BuildID, corpus.Len())
	return nil
}

// Snapshot exports the ready engine for persistence.
func (e *Engine) Snapshot() (*domain.Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != domain.StateReady {
		return nil, fmt.Errorf("snapshot: %w", domain.ErrNotReady)
	}
	return &domain.Snapshot{
		BuildID:   e.buildID,
		CreatedAt: e.builtAt,
		Items:     e.corpus.Slice(),
		Lexical:   e.lexical.Snapshot(),
		Vector:    e.vector.Snapshot(),
	}, nil
}

// Search ranks items against free text.
func (e *Engine) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	snap, err := e.ready()
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger.Section("Search Execution")
	logger.Debug("Query: %q, top_k: %d, alpha: %v", query, opts.TopK, opts.Alpha)

	// A blank query has no lexical or semantic content to rank by.
	if opts.TopK == 0 || strings.TrimSpace(query) == "" {
		return []domain.SearchResult{}, nil
	}
	return snap.rank(ctx, e.embedder, query, opts, e.overfetch, nil, 0)
}

// SearchSimilar ranks items against the assembled text of itemID. The item
// itself and every item with identical text are left out of the results.
func (e *Engine) SearchSimilar(
	ctx context.Context, itemID string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	snap, err := e.ready()
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	idx, ok := snap.corpus.IndexOf(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: item %q", domain.ErrNotFound, itemID)
	}
	text := snap.corpus.At(idx).Text

	logger.Section("Similar Items")
	logger.Debug("Item: %s (index %d)", itemID, idx)

	if opts.TopK == 0 {
		return []domain.SearchResult{}, nil
	}
	exclude := func(i int) bool {
		return i == idx || snap.corpus.At(i).Text == text
	}
	return snap.rank(ctx, e.embedder, text, opts, e.overfetch, exclude, 1)
}

// SearchQuestion ranks items against a question given as a group context and stem.
func (e *Engine) SearchQuestion(
	ctx context.Context, groupContext, stem string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return e.Search(ctx, domain.QuestionText(groupContext, stem), opts)
}

// readyState is a consistent view of a ready engine.
type readyState struct {
	corpus  *domain.Corpus
	lexical driven.LexicalIndex
	vector  driven.VectorIndex
}

func (e *Engine) ready() (readyState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != domain.StateReady {
		return readyState{}, fmt.Errorf("%w: engine is %s", domain.ErrNotReady, e.state)
	}
	return readyState{corpus: e.corpus, lexical: e.lexical, vector: e.vector}, nil
}

// rank runs one hybrid query. extra widens the vector over-fetch to make room
// for excluded items.
func (s readyState) rank(
	ctx context.Context,
	embedder driven.EmbeddingService,
	query string,
	opts domain.SearchOptions,
	overfetch int,
	exclude func(int) bool,
	extra int,
) ([]domain.SearchResult, error) {
	if embedder == nil {
		return nil, fmt.Errorf("search: %w", domain.ErrEmbeddingUnavailable)
	}

	done := logger.Timed("embed query")
	qvec, err := embedder.Embed(ctx, query)
	done()
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", providerError(err))
	}

	n := s.corpus.Len()
	k := min(opts.TopK, n)*overfetch + extra
	hits, err := s.vector.Search(ctx, qvec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector candidates: %d (requested %d)", len(hits), k)

	if exclude != nil {
		kept := hits[:0:0]
		for _, h := range hits {
			if !exclude(h.Index) {
				kept = append(kept, h)
			}
		}
		hits = kept
		logger.Debug("Candidates after exclusion: %d", len(hits))
	}

	tokens := s.lexical.Tokenize(query)
	scores := s.lexical.ScoreAll(tokens)
	logger.Debug("Query tokens: %d", len(tokens))

	fused, err := Fuse(hits, scores, opts.Alpha, opts.TopK)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, len(fused))
	for i, f := range fused {
		item := s.corpus.At(f.Index)
		results[i] = domain.SearchResult{
			ID:      item.ID,
			Year:    item.Year,
			Subject: item.Subject,
			Content: item.Text,
			Score:   f.Score,
			Index:   f.Index,
		}
	}
	logger.Info("Final results: %d", len(results))
	return results, nil
}

// checkSizes enforces that both indexes cover exactly the corpus.
func checkSizes(n int, lexical driven.LexicalIndex, vector driven.VectorIndex) error {
	if lexical.Len() != n || vector.Len() != n {
		return fmt.Errorf("%w: corpus %d, lexical %d, vector %d",
			domain.ErrIndexMismatch, n, lexical.Len(), vector.Len())
	}
	return nil
}

// providerError tags embedding failures with ErrEmbeddingProvider unless the
// provider already classified them.
func providerError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProvider) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
}
