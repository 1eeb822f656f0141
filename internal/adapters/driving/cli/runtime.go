package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/ai"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/corpus"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/lexical/bm25"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/vector/hnsw"
	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
	"github.com/custodia-labs/quizhunter/internal/core/services"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

// corpusFlags select a corpus on disk for commands that can build in place.
type corpusFlags struct {
	path string
	kind string
}

func (f *corpusFlags) register(cmd *cobra.Command, usage string) {
	cmd.Flags().StringVarP(&f.path, "corpus", "c", "", usage)
	cmd.Flags().StringVar(&f.kind, "kind", "", "corpus format: csv or json (default from the file extension)")
}

// source returns the selected corpus, or nil when no path was given.
func (f *corpusFlags) source() (*corpus.Source, error) {
	if f.path == "" {
		return nil, nil //nolint:nilnil // no corpus selected
	}
	kind := corpus.KindOf(f.path)
	if f.kind != "" {
		parsed, err := corpus.ParseKind(f.kind)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}
	return &corpus.Source{Kind: kind, Path: f.path}, nil
}

// searchFlags are the query options shared by search and similar.
type searchFlags struct {
	topK  int
	alpha float64
	json  bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "maximum number of results (default from settings)")
	cmd.Flags().Float64VarP(&f.alpha, "alpha", "a", 0, "vector weight in [0,1] (default from settings)")
	cmd.Flags().BoolVar(&f.json, "json", false, "output results as JSON")
}

// options merges explicit flags over the configured defaults.
func (f *searchFlags) options(cmd *cobra.Command, settings *domain.AppSettings) domain.SearchOptions {
	opts := domain.SearchOptions{TopK: settings.Search.TopK, Alpha: settings.Search.Alpha}
	if cmd.Flags().Changed("top-k") {
		opts.TopK = f.topK
	}
	if cmd.Flags().Changed("alpha") {
		opts.Alpha = f.alpha
	}
	return opts
}

func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// newEngine wires the configured index builders around corpus.
func newEngine(
	settings *domain.AppSettings,
	c *domain.Corpus,
	embedder driven.EmbeddingService,
) (*services.Engine, error) {
	lexical, err := bm25.NewBuilder(settings.Lexical.Params(), runtime.NumCPU())
	if err != nil {
		return nil, fmt.Errorf("lexical settings: %w", err)
	}
	vector, err := hnsw.NewBuilder(settings.Vector.Params())
	if err != nil {
		return nil, fmt.Errorf("vector settings: %w", err)
	}
	return services.NewEngine(c, embedder, lexical, vector, services.EngineOptions{
		Overfetch: settings.Search.Overfetch,
	}), nil
}

// openSnapshotStore returns the configured snapshot store and its closer.
func openSnapshotStore() (driven.SnapshotStore, func(), error) {
	if ephemeral {
		return memorySnapshots, func() {}, nil
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening index database: %w", err)
	}
	return store.SnapshotStore(), func() { store.Close() }, nil //nolint:errcheck // best-effort close
}

// buildFromSource loads src and builds a fresh engine over it.
func buildFromSource(
	ctx context.Context,
	settings *domain.AppSettings,
	embedder driven.EmbeddingService,
	src corpus.Source,
) (*services.Engine, error) {
	done := logger.Timed("load corpus")
	c, err := corpus.Load(src)
	done()
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d items from %s", c.Len(), src.Path)

	engine, err := newEngine(settings, c, embedder)
	if err != nil {
		return nil, err
	}
	if err := engine.Build(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}

// session is a ready engine plus the resources it holds.
type session struct {
	settings *domain.AppSettings
	embedder driven.EmbeddingService
	engine   *services.Engine
}

// Close releases the embedding service.
func (s *session) Close() {
	if s.embedder != nil {
		s.embedder.Close() //nolint:errcheck // best-effort close
	}
}

// openSession returns a ready engine: built from src when given, otherwise
// restored from the last saved snapshot.
func openSession(ctx context.Context, src *corpus.Source) (*session, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	sess := &session{settings: settings, embedder: embedder}

	if src != nil {
		sess.engine, err = buildFromSource(ctx, settings, embedder, *src)
		if err != nil {
			sess.Close()
			return nil, err
		}
		return sess, nil
	}

	snapshot, err := loadSnapshot(ctx)
	if err != nil {
		sess.Close()
		return nil, err
	}
	if sess.engine, err = newEngine(settings, nil, embedder); err == nil {
		err = sess.engine.Restore(snapshot)
	}
	if err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// loadSnapshot reads the saved snapshot with a hint when none exists.
func loadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	store, closeStore, err := openSnapshotStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	snapshot, err := store.Load(ctx)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("%w. Run 'quizhunter index --corpus PATH' or pass --corpus", err)
	}
	return snapshot, err
}
