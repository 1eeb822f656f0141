package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

const newsCSV = "id,content,date\n" +
	"1,copper reacts with nitric acid producing gas,2024-01-02\n" +
	"2,sodium reacts with water producing hydrogen,2024-01-03\n"

const examJSON = `[
  {"id": "q1", "year": 2019, "subject": "chemistry", "stem": "Which metal reacts with nitric acid to release a brown gas?",
   "options": {"A": "copper", "B": "gold"}},
  {"id": "q2", "year": 2019, "subject": "chemistry", "stem": "Which metal reacts violently with water?",
   "options": {"A": "sodium", "B": "silver"}},
  {"id": "q3", "year": 2020, "subject": "physics", "stem": "Which material is the best electrical conductor?",
   "options": {"A": "copper", "B": "glass"}},
  {"id": "q4", "year": 2020, "subject": "biology", "stem": "Which organelle produces energy in the cell?",
   "options": {"A": "mitochondria", "B": "ribosome"}},
  {"id": "q5", "year": 2021, "subject": "physics", "stem": "Which material is the best electrical conductor?",
   "options": {"A": "copper", "B": "glass"}},
  {"id": "q6", "year": 2021, "subject": "history", "group_id": "g1",
   "group_context": "Read the passage about the industrial revolution.",
   "stem": "Which fuel powered early steam engines?", "options": {"A": "coal", "B": "wind"}}
]`

func decodeResults(t *testing.T, out string) []domain.SearchResult {
	t.Helper()
	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	return results
}

func resultIDs(results []domain.SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
	assert.Equal(t, "Search indexed items", searchCmd.Short)
	assert.Contains(t, searchCmd.Long, "BM25")
}

func TestSearchCmd_Flags(t *testing.T) {
	topK := searchCmd.Flags().Lookup("top-k")
	require.NotNil(t, topK)
	assert.Equal(t, "k", topK.Shorthand)
	for _, name := range []string{"alpha", "json", "corpus", "kind", "context"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), name)
	}
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearchCmd_WithoutIndex(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "--ephemeral", "copper")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	assert.Contains(t, err.Error(), "quizhunter index")
}

func TestIndexThenSearch(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	out, err := execute(t, "index", "--ephemeral", "--corpus", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 items")
	assert.Contains(t, out, "fnv-hashing")

	out, err = execute(t, "search", "--ephemeral", "-k", "1", "copper", "nitric", "acid")
	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] 1 (")
	assert.NotContains(t, out, "[2]")

	out, err = execute(t, "search", "--ephemeral", "--json", "-k", "2", "sodium water")
	require.NoError(t, err)
	results := decodeResults(t, out)
	require.Len(t, results, 2)
	assert.Equal(t, "2", results[0].ID)
	assert.Equal(t, domain.UnknownField, results[0].Year)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestIndexCmd_RequiresCorpus(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "index", "--ephemeral")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--corpus is required")
}

func TestIndexCmd_SchemaError(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "bad.csv", "id,text\n1,x\n")

	_, err := execute(t, "index", "--ephemeral", "--corpus", path)

	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestIndexCmd_DuplicateIDsAcrossYears(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	writeFile(t, dir, "2019.json", `[{"id": 1, "year": 2019, "stem": "Which metal?", "options": {"A": "copper"}}]`)
	writeFile(t, dir, "2020.json", `[{"id": 1, "year": 2020, "stem": "Which gas?", "options": {"A": "oxygen"}}]`)

	_, err := execute(t, "index", "--ephemeral", "--corpus", dir)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "id", schemaErr.Field)
	assert.Contains(t, indexCmd.Long, "unique across the whole corpus")
}

func TestIndexCmd_UnknownKind(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	_, err := execute(t, "index", "--ephemeral", "--corpus", path, "--kind", "xml")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIndexCmd_PersistsToDatabase(t *testing.T) {
	setupTestServices(t)
	dataDir := t.TempDir()
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	_, err := execute(t, "index", "--data-dir", dataDir, "--corpus", path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, "index.db"))

	out, err := execute(t, "search", "--data-dir", dataDir, "--json", "-k", "1", "copper nitric acid")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, resultIDs(decodeResults(t, out)))
}

func TestSearchCmd_FromCorpusFlag(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	out, err := execute(t, "search", "--ephemeral", "--corpus", path, "--json", "-k", "1", "--alpha", "0.5",
		"copper reacts with nitric acid")

	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, resultIDs(decodeResults(t, out)))
}

func TestSearchCmd_InvalidAlpha(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	_, err := execute(t, "search", "--ephemeral", "--corpus", path, "--alpha", "1.2", "copper")

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearchCmd_ZeroTopK(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	out, err := execute(t, "search", "--ephemeral", "--corpus", path, "-k", "0", "copper")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_UsesConfiguredTopK(t *testing.T) {
	setupTestServices(t)
	require.NoError(t, settingsService.Set("search.top_k", "1"))
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	out, err := execute(t, "search", "--ephemeral", "--corpus", path, "--json", "reacts")

	require.NoError(t, err)
	assert.Len(t, decodeResults(t, out), 1)
}

func TestSearchCmd_QuestionContext(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "exam.json", examJSON)

	out, err := execute(t, "search", "--ephemeral", "--corpus", path, "--json", "-k", "1",
		"--context", "Read the passage about the industrial revolution.",
		"Which fuel powered early steam engines?")

	require.NoError(t, err)
	assert.Equal(t, []string{"q6"}, resultIDs(decodeResults(t, out)))
}

func TestSimilarCmd(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "exam.json", examJSON)

	out, err := execute(t, "similar", "--ephemeral", "--corpus", path, "--json", "-k", "10", "q3")

	require.NoError(t, err)
	ids := resultIDs(decodeResults(t, out))
	assert.Len(t, ids, 4)
	assert.NotContains(t, ids, "q3")
	assert.NotContains(t, ids, "q5", "exact duplicates are excluded")
}

func TestSimilarCmd_UnknownItem(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "exam.json", examJSON)

	_, err := execute(t, "similar", "--ephemeral", "--corpus", path, "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSimilarCmd_RequiresOneArg(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "similar")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestOutputSearchTable_Empty(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "news.csv", newsCSV)

	out, err := execute(t, "search", "--ephemeral", "--corpus", path, "   ")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n b\t c", 10))
	assert.Equal(t, "銅與硝酸…", truncate("銅與硝酸反應產生氣體", 5))
}
