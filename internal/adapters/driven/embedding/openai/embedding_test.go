package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// echoServer answers each request with one-hot vectors, returning data in
// reverse order to exercise index reordering.
func echoServer(t *testing.T, requests *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Embedding: []float64{float64(len(req.Input[i])), 1}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
	assert.Equal(t, MaxBatchSize, svc.batchSize)
	assert.NoError(t, svc.Close())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	requests := 0
	server := echoServer(t, &requests)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), []string{"a", "bbb", "cc"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {3, 1}, {2, 1}}, got)
	assert.Equal(t, 1, requests)
}

func TestEmbedBatch_Chunks(t *testing.T) {
	requests := 0
	server := echoServer(t, &requests)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL, BatchSize: 2})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})

	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, v := range got {
		assert.Equal(t, float32(i+1), v[0])
	}
	assert.Equal(t, 3, requests)
}

func TestEmbed(t *testing.T) {
	requests := 0
	server := echoServer(t, &requests)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	got, err := svc.Embed(context.Background(), "four")

	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1}, got)
}

func TestEmbedBatch_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"unauthorised", `{"error":{"message":"bad key"}}`, http.StatusUnauthorized},
		{"error body", `{"error":{"message":"quota"}}`, http.StatusOK},
		{"missing item", `{"data":[{"embedding":[1],"index":0}]}`, http.StatusOK},
		{"bad index", `{"data":[{"embedding":[1],"index":5},{"embedding":[1],"index":0}]}`, http.StatusOK},
		{"duplicate index", `{"data":[{"embedding":[1],"index":0},{"embedding":[1],"index":0}]}`, http.StatusOK},
		{"bad json", `{`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})
			assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
		})
	}
}

func TestEmbedBatch_ContextCanceled(t *testing.T) {
	requests := 0
	server := echoServer(t, &requests)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrEmbeddingProvider)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" && r.Header.Get("Authorization") == "Bearer sk-test" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))

	bad, err := NewEmbeddingService(Config{APIKey: "sk-wrong", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Error(t, bad.Ping(context.Background()))
}
