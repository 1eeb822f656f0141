// Package langchain provides an embedding service adapter for any
// OpenAI-compatible endpoint, reached through langchaingo.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/embedding/throttle"
	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8080/v1"
	DefaultModel      = "text-embedding-3-small"
	DefaultDimensions = 1536

	// noToken is sent to local services that do not authenticate.
	noToken = "none"
)

// Config holds configuration for the langchaingo embedding service.
type Config struct {
	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string

	// APIKey is optional; local servers usually ignore it.
	APIKey string

	// Model is the embedding model to use.
	Model string

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int

	// RateLimit caps requests per second; zero disables throttling.
	RateLimit float64
}

// EmbeddingService generates embeddings via langchaingo's OpenAI client.
type EmbeddingService struct {
	embedder   embeddings.Embedder
	limiter    *throttle.Limiter
	model      string
	dimensions int
}

// NewEmbeddingService creates a new langchaingo embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	token := cfg.APIKey
	if token == "" {
		token = noToken
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: langchain: create client: %w", domain.ErrEmbeddingUnavailable, err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("%w: langchain: create embedder: %w", domain.ErrEmbeddingUnavailable, err)
	}

	return newWithEmbedder(embedder, cfg), nil
}

func newWithEmbedder(embedder embeddings.Embedder, cfg Config) *EmbeddingService {
	return &EmbeddingService{
		embedder:   embedder,
		limiter:    throttle.New(cfg.RateLimit),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts. langchaingo splits the
// texts into provider-sized batches.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	logger.Debug("langchain: embedding %d texts with %s", len(texts), s.model)
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: langchain: %w", domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: langchain returned %d embeddings for %d inputs",
			domain.ErrEmbeddingProvider, len(vectors), len(texts))
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short sample text. OpenAI-compatible servers do not share a
// cheaper health endpoint.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("langchain: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
