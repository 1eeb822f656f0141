package domain

const unknownDescription = "Unknown"

// Default retrieval parameters.
const (
	DefaultTopK           = 5
	DefaultAlpha          = 0.5
	DefaultOverfetch      = 10
	DefaultK1             = 1.5
	DefaultB              = 0.75
	DefaultM              = 32
	DefaultEfConstruction = 100
	DefaultEfSearch       = 64
	DefaultSeed           = 42
	DefaultTokenizer      = TokenizerWhitespace
)

// Tokenization policies understood by the lexical index.
const (
	// TokenizerWhitespace splits on Unicode whitespace and preserves case.
	// It under-segments languages written without spaces.
	TokenizerWhitespace = "whitespace"

	// TokenizerStandard applies Unicode word segmentation, lowercasing and
	// English stop-word removal.
	TokenizerStandard = "standard"

	// TokenizerCJK emits overlapping bigrams for Chinese, Japanese and Korean text.
	TokenizerCJK = "cjk"
)

// IsKnownTokenizer reports whether name is a supported tokenization policy.
func IsKnownTokenizer(name string) bool {
	switch name {
	case TokenizerWhitespace, TokenizerStandard, TokenizerCJK:
		return true
	default:
		return false
	}
}

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderLangChain is any OpenAI-compatible endpoint reached through langchaingo.
	AIProviderLangChain AIProvider = "langchain"

	// AIProviderHashing is the built-in feature-hashing embedder. It needs no service.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderLangChain, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs on this machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderLangChain:
		return "OpenAI-compatible (langchaingo)"
	case AIProviderHashing:
		return "Feature hashing (built-in)"
	default:
		return unknownDescription
	}
}

// SearchSettings holds query defaults.
type SearchSettings struct {
	// TopK is the default number of results.
	TopK int

	// Alpha is the default vector weight.
	Alpha float64

	// Overfetch multiplies TopK when asking the vector index for candidates.
	Overfetch int
}

// LexicalSettings holds BM25 build parameters.
type LexicalSettings struct {
	// Tokenizer is the tokenization policy name.
	Tokenizer string

	// K1 is the BM25 saturation parameter.
	K1 float64

	// B is the BM25 length-normalisation parameter.
	B float64
}

// Params converts the settings into index parameters.
func (l LexicalSettings) Params() LexicalParams {
	return LexicalParams{K1: l.K1, B: l.B, Tokenizer: l.Tokenizer}
}

// VectorSettings holds HNSW build parameters.
type VectorSettings struct {
	M              int
	EfConstruction int
	EfSearch       int
	Seed           uint64
}

// Params converts the settings into graph parameters.
func (v VectorSettings) Params() GraphParams {
	return GraphParams{
		M:              v.M,
		EfConstruction: v.EfConstruction,
		EfSearch:       v.EfSearch,
		Seed:           v.Seed,
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's vector size when non-zero.
	Dimensions int

	// RateLimit caps provider requests per second; zero disables throttling.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search    SearchSettings
	Lexical   LexicalSettings
	Vector    VectorSettings
	Embedding EmbeddingSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The hashing embedder is the default so a fresh install works offline.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			TopK:      DefaultTopK,
			Alpha:     DefaultAlpha,
			Overfetch: DefaultOverfetch,
		},
		Lexical: LexicalSettings{
			Tokenizer: DefaultTokenizer,
			K1:        DefaultK1,
			B:         DefaultB,
		},
		Vector: VectorSettings{
			M:              DefaultM,
			EfConstruction: DefaultEfConstruction,
			EfSearch:       DefaultEfSearch,
			Seed:           DefaultSeed,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Dimensions: 512,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderLangChain,
		AIProviderHashing,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "nomic-embed-text",
		AIProviderOpenAI:    "text-embedding-3-small",
		AIProviderLangChain: "text-embedding-3-small",
		AIProviderHashing:   "fnv-hashing",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		"bge-m3":            1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
