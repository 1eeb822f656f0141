package cli

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/corpus"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/services"
)

func shortDebounce(t *testing.T) {
	t.Helper()
	old := watchDebounce
	watchDebounce = 50 * time.Millisecond
	t.Cleanup(func() { watchDebounce = old })
}

// startWatch runs watchCorpus in the background and returns a counter of
// onChange calls.
func startWatch(t *testing.T, path string) *atomic.Int32 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	calls := new(atomic.Int32)
	done := make(chan error, 1)
	go func() {
		done <- watchCorpus(ctx, path, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// Give the watcher time to register before the test writes.
	time.Sleep(50 * time.Millisecond)
	return calls
}

func TestWatchCorpus_MissingPath(t *testing.T) {
	err := watchCorpus(context.Background(), "/no/such/corpus.json", func(context.Context) error { return nil })

	assert.Error(t, err)
}

func TestWatchCorpus_File(t *testing.T) {
	shortDebounce(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "exam.json", examJSON)
	calls := startWatch(t, path)

	writeFile(t, dir, "other.json", `[]`)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "sibling files are ignored")

	require.NoError(t, os.WriteFile(path, []byte(examJSON), 0o600))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchCorpus_DirectoryDebounces(t *testing.T) {
	shortDebounce(t)
	dir := t.TempDir()
	calls := startWatch(t, dir)

	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "a.json", `[]`)
	writeFile(t, dir, "b.csv", "id,content\n")

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReloader_SwapsEngine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "news.csv", newsCSV)
	settings := domain.DefaultAppSettings()
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 64})
	src := corpus.Source{Kind: corpus.KindTabular, Path: path}

	first, err := buildFromSource(context.Background(), &settings, embedder, src)
	require.NoError(t, err)
	target := services.NewSwappableRetrieval(first)
	r := &reloader{settings: &settings, embedder: embedder, source: src, target: target}

	writeFile(t, dir, "news.csv", newsCSV+"3,iron rusts in moist air,2024-01-04\n")
	require.NoError(t, r.reload(context.Background()))

	item, err := target.Item("3")
	require.NoError(t, err)
	assert.Equal(t, "iron rusts in moist air", item.Content)
	assert.NotSame(t, first, target.Current())
}

func TestReloader_FailureKeepsEngine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "news.csv", newsCSV)
	settings := domain.DefaultAppSettings()
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 64})
	src := corpus.Source{Kind: corpus.KindTabular, Path: path}

	first, err := buildFromSource(context.Background(), &settings, embedder, src)
	require.NoError(t, err)
	target := services.NewSwappableRetrieval(first)
	r := &reloader{settings: &settings, embedder: embedder, source: src, target: target}

	writeFile(t, dir, "news.csv", "id,text\n1,x\n")
	require.ErrorIs(t, r.reload(context.Background()), domain.ErrSchema)

	assert.Same(t, first, target.Current())
}

func TestMCPServeCmd_Flags(t *testing.T) {
	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "0", port.DefValue)
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("watch"))
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("corpus"))
}

func TestMCPServeCmd_WatchRequiresCorpus(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "mcp", "serve", "--ephemeral", "--watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires --corpus")
}

func TestMCPServeCmd_WithoutIndex(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "mcp", "serve", "--ephemeral")

	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}
