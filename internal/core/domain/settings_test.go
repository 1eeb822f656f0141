package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"langchain is valid", AIProviderLangChain, true},
		{"hashing is valid", AIProviderHashing, true},
		{"empty string is invalid", AIProvider(""), false},
		{"anthropic is invalid", AIProvider("anthropic"), false},
		{"uppercase is invalid", AIProvider("OLLAMA"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

// TestAIProvider_Properties tests key requirements, locality and descriptions
func TestAIProvider_Properties(t *testing.T) {
	tests := []struct {
		provider    AIProvider
		requiresKey bool
		local       bool
		description string
	}{
		{AIProviderOllama, false, true, "Ollama (local)"},
		{AIProviderOpenAI, true, false, "OpenAI (cloud)"},
		{AIProviderLangChain, false, false, "OpenAI-compatible (langchaingo)"},
		{AIProviderHashing, false, true, "Feature hashing (built-in)"},
		{AIProvider("other"), false, false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.requiresKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.Equal(t, tt.description, tt.provider.Description())
		})
	}
}

// TestIsKnownTokenizer tests the supported tokenization policies
func TestIsKnownTokenizer(t *testing.T) {
	for _, name := range []string{TokenizerWhitespace, TokenizerStandard, TokenizerCJK} {
		assert.True(t, IsKnownTokenizer(name), name)
	}
	assert.False(t, IsKnownTokenizer(""))
	assert.False(t, IsKnownTokenizer("Whitespace"))
}

// TestEmbeddingSettings_IsConfigured tests provider and key combinations
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"hashing", EmbeddingSettings{Provider: AIProviderHashing}, true},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-x"}, true},
		{"unknown provider", EmbeddingSettings{Provider: "nope"}, false},
		{"empty", EmbeddingSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

// TestDefaultAppSettings tests the out-of-the-box configuration
func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, DefaultTopK, s.Search.TopK)
	assert.InDelta(t, DefaultAlpha, s.Search.Alpha, 0)
	assert.Equal(t, DefaultOverfetch, s.Search.Overfetch)
	assert.Equal(t, TokenizerWhitespace, s.Lexical.Tokenizer)
	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.True(t, s.Embedding.IsConfigured())
	assert.NoError(t, SearchOptions{TopK: s.Search.TopK, Alpha: s.Search.Alpha}.Validate())
}

// TestSettings_Params tests conversion into index parameters
func TestSettings_Params(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, LexicalParams{K1: DefaultK1, B: DefaultB, Tokenizer: DefaultTokenizer}, s.Lexical.Params())
	assert.Equal(t, GraphParams{
		M:              DefaultM,
		EfConstruction: DefaultEfConstruction,
		EfSearch:       DefaultEfSearch,
		Seed:           DefaultSeed,
	}, s.Vector.Params())
}

// TestDefaultEmbeddingModels tests every provider has a default model
func TestDefaultEmbeddingModels(t *testing.T) {
	models := DefaultEmbeddingModels()
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, models[p], p)
	}
	assert.Equal(t, 768, EmbeddingDimensions()[models[AIProviderOllama]])
	assert.Equal(t, 1536, EmbeddingDimensions()[models[AIProviderOpenAI]])
}
