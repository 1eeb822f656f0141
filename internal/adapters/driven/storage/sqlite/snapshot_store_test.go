package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/lexical/bm25"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/vector/hnsw"
	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/services"
)

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		BuildID:   "0b9b3d0e-4c8a-4f57-9d55-2a4f5f0c2b11",
		CreatedAt: time.Date(2024, 5, 1, 12, 30, 15, 123456789, time.UTC),
		Items: []domain.Item{
			{
				ID: "q1", Year: "106", Subject: "chemistry", Stem: "Which metal?",
				Options: []domain.Option{{Label: "A", Text: "copper"}, {Label: "B", Text: "gold"}},
			},
			{ID: "n1", Year: "unknown", Subject: "unknown", Content: "plain note", Date: "2024-05-01"},
			{
				ID: "g1", Year: "107", Subject: "history", GroupID: "7",
				GroupContext: "Read the passage.", Stem: "Who wrote it?",
				Options: []domain.Option{{Label: "甲", Text: "Lu Xun"}},
			},
		},
		Lexical: domain.LexicalSnapshot{
			Params:     domain.LexicalParams{K1: 1.2, B: 0.1 + 0.2, Tokenizer: "standard"},
			DocLengths: []int{5, 2, 7},
			Postings: map[string][]domain.Posting{
				"metal":  {{Index: 0, TF: 1}},
				"plain":  {{Index: 1, TF: 1}},
				"passag": {{Index: 0, TF: 2}, {Index: 2, TF: 300}},
			},
		},
		Vector: domain.GraphSnapshot{
			Params: domain.GraphParams{
				M: 16, EfConstruction: 200, EfSearch: 50, Seed: 1<<63 + 5, Dimension: 3,
			},
			Vectors:    [][]float32{{0.1, 0.2, 0.3}, {1, 0, 0}, {-0.5, 0.25, 1e-7}},
			Levels:     []int{0, 1, 0},
			Neighbors:  [][][]int32{{{1, 2}}, {{0, 2}, {}}, {{1}}},
			EntryPoint: 1,
			MaxLevel:   1,
		},
	}
}

func TestSnapshotStore_LoadEmpty(t *testing.T) {
	store := setupTestStore(t).SnapshotStore()

	snap, err := store.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	assert.Nil(t, snap)
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t).SnapshotStore()
	original := testSnapshot()

	require.NoError(t, store.Save(context.Background(), original))
	loaded, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, original, loaded)
	assert.Equal(t, 0.1+0.2, loaded.Lexical.Params.B, "floats must survive bit-for-bit")
}

func TestSnapshotStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.SnapshotStore().Save(context.Background(), testSnapshot()))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.SnapshotStore().Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(), loaded)
}

func TestSnapshotStore_Overwrite(t *testing.T) {
	store := setupTestStore(t).SnapshotStore()
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	smaller := testSnapshot()
	smaller.BuildID = "second"
	smaller.Items = smaller.Items[:1]
	smaller.Lexical.DocLengths = smaller.Lexical.DocLengths[:1]
	smaller.Lexical.Postings = map[string][]domain.Posting{"metal": {{Index: 0, TF: 1}}}
	smaller.Vector.Vectors = smaller.Vector.Vectors[:1]
	smaller.Vector.Levels = smaller.Vector.Levels[:1]
	smaller.Vector.Neighbors = [][][]int32{{{}}}
	smaller.Vector.EntryPoint = 0
	smaller.Vector.MaxLevel = 0
	require.NoError(t, store.Save(context.Background(), smaller))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, smaller, loaded)
}

func TestSnapshotStore_SaveRejectsInconsistentSnapshot(t *testing.T) {
	store := setupTestStore(t).SnapshotStore()
	snap := testSnapshot()
	snap.Vector.Vectors = snap.Vector.Vectors[:2]

	err := store.Save(context.Background(), snap)

	assert.ErrorIs(t, err, domain.ErrIndexMismatch)
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSnapshotStore_SaveNil(t *testing.T) {
	store := setupTestStore(t).SnapshotStore()

	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidArgument)
}

func TestSnapshotStore_FailedSaveKeepsPrevious(t *testing.T) {
	store := setupTestStore(t).SnapshotStore()
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	dup := testSnapshot()
	dup.BuildID = "dup"
	dup.Items[1].ID = dup.Items[0].ID
	require.Error(t, store.Save(context.Background(), dup))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testSnapshot().BuildID, loaded.BuildID)
}

func TestSnapshotStore_CancelledContext(t *testing.T) {
	store := setupTestStore(t).SnapshotStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Save(ctx, testSnapshot()))
}

func TestPostings_RoundTrip(t *testing.T) {
	in := []domain.Posting{{Index: 0, TF: 1}, {Index: 3, TF: 2}, {Index: 1000, TF: 70000}}

	out, err := decodePostings(encodePostings(in))

	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodePostings([]byte{0x80})
	assert.Error(t, err)
}

func newEngine(t *testing.T, corpus *domain.Corpus) *services.Engine {
	t.Helper()
	lexical, err := bm25.NewBuilder(domain.LexicalParams{K1: 1.5, B: 0.75, Tokenizer: domain.TokenizerWhitespace}, 2)
	require.NoError(t, err)
	vector, err := hnsw.NewBuilder(domain.GraphParams{M: 8, EfConstruction: 64, EfSearch: 32, Seed: 11})
	require.NoError(t, err)
	embedder := hashing.NewEmbeddingService(hashing.Config{Dimensions: 128})
	return services.NewEngine(corpus, embedder, lexical, vector, services.EngineOptions{})
}

func TestSnapshotStore_RestoredEngineMatchesMemoryStore(t *testing.T) {
	ctx := context.Background()
	items := []domain.Item{
		{ID: "1", Content: "copper reacts with nitric acid producing gas"},
		{ID: "2", Content: "sodium reacts with water producing hydrogen"},
	}
	for i := range 40 {
		items = append(items, domain.Item{
			ID:      fmt.Sprintf("x%02d", i),
			Content: fmt.Sprintf("record %d mentions acid %d times near water %d", i, i%5, i%3),
		})
	}
	corpus, err := domain.NewCorpus("test", items)
	require.NoError(t, err)

	original := newEngine(t, corpus)
	require.NoError(t, original.Build(ctx))
	snap, err := original.Snapshot()
	require.NoError(t, err)

	sqliteStore := setupTestStore(t).SnapshotStore()
	memStore := memory.NewSnapshotStore()
	require.NoError(t, sqliteStore.Save(ctx, snap))
	require.NoError(t, memStore.Save(ctx, snap))

	fromSQLite, err := sqliteStore.Load(ctx)
	require.NoError(t, err)
	fromMemory, err := memStore.Load(ctx)
	require.NoError(t, err)

	a := newEngine(t, nil)
	require.NoError(t, a.Restore(fromSQLite))
	b := newEngine(t, nil)
	require.NoError(t, b.Restore(fromMemory))
	assert.Equal(t, snap.BuildID, a.BuildID())

	for _, alpha := range []float64{0, 0.3, 0.5, 1} {
		for _, query := range []string{"copper nitric acid", "water hydrogen", "record 7"} {
			opts := domain.SearchOptions{TopK: 10, Alpha: alpha}
			want, err := original.Search(ctx, query, opts)
			require.NoError(t, err)
			gotSQLite, err := a.Search(ctx, query, opts)
			require.NoError(t, err)
			gotMemory, err := b.Search(ctx, query, opts)
			require.NoError(t, err)

			assert.Equal(t, want, gotSQLite, "sqlite alpha=%v query=%q", alpha, query)
			assert.Equal(t, want, gotMemory, "memory alpha=%v query=%q", alpha, query)
		}
	}
}
