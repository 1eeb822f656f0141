package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/ai"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

var indexCorpus corpusFlags

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and save the search index",
	Long: `Loads a corpus, embeds every item once, builds the BM25 and HNSW indexes
and saves them as a snapshot. Later commands restore the snapshot instead
of re-embedding the corpus.

Item ids must be unique across the whole corpus, including every file of a
directory. Per-year files that number questions from 1 need distinct ids
(for example "2019-1") before they are indexed together.

Examples:
  quizhunter index --corpus questions/            # directory of JSON files
  quizhunter index --corpus news.csv --kind csv`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCorpus.register(indexCmd, "corpus file or directory to index (required)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	src, err := indexCorpus.source()
	if err != nil {
		return err
	}
	if src == nil {
		return errors.New("--corpus is required")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return err
	}
	defer embedder.Close()

	engine, err := buildFromSource(ctx, settings, embedder, *src)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	snapshot, err := engine.Snapshot()
	if err != nil {
		return err
	}

	store, closeStore, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer closeStore()

	done := logger.Timed("save snapshot")
	if err := store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	done()

	cmd.Printf("Indexed %d items from %s\n", engine.Len(), src.Path)
	cmd.Printf("  Build: %s\n", snapshot.BuildID)
	cmd.Printf("  Embedding: %s (%d dimensions)\n", embedder.ModelName(), embedder.Dimensions())
	return nil
}
