package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeySearchTopK        = "search.top_k"
	KeySearchAlpha       = "search.alpha"
	KeySearchOverfetch   = "search.overfetch"
	KeyLexicalTokenizer  = "lexical.tokenizer"
	KeyLexicalK1         = "lexical.k1"
	KeyLexicalB          = "lexical.b"
	KeyVectorM           = "vector.m"
	KeyVectorEfConstruct = "vector.ef_construction"
	KeyVectorEfSearch    = "vector.ef_search"
	KeyVectorSeed        = "vector.seed"
	KeyEmbedProvider     = "embedding.provider"
	KeyEmbedModel        = "embedding.model"
	KeyEmbedBaseURL      = "embedding.base_url"
	KeyEmbedAPIKey       = "embedding.api_key"
	KeyEmbedDimensions   = "embedding.dimensions"
	KeyEmbedRateLimit    = "embedding.rate_limit"
)

const (
	envOpenAIAPIKey  = "OPENAI_API_KEY"
	defaultOllamaURL = "http://localhost:11434"
)

// settingKind says how Set parses a value.
type settingKind int

const (
	settingKindString settingKind = iota
	settingKindInt
	settingKindUnit // float in [0, 1]
	settingKindNonNegFloat
	settingKindProvider
	settingKindTokenizer
)

// settingKinds lists every key Set accepts and how its value is parsed.
var settingKinds = map[string]settingKind{
	KeySearchTopK:        settingKindInt,
	KeySearchAlpha:       settingKindUnit,
	KeySearchOverfetch:   settingKindInt,
	KeyLexicalTokenizer:  settingKindTokenizer,
	KeyLexicalK1:         settingKindNonNegFloat,
	KeyLexicalB:          settingKindUnit,
	KeyVectorM:           settingKindInt,
	KeyVectorEfConstruct: settingKindInt,
	KeyVectorEfSearch:    settingKindInt,
	KeyVectorSeed:        settingKindInt,
	KeyEmbedProvider:     settingKindProvider,
	KeyEmbedModel:        settingKindString,
	KeyEmbedBaseURL:      settingKindString,
	KeyEmbedAPIKey:       settingKindString,
	KeyEmbedDimensions:   settingKindInt,
	KeyEmbedRateLimit:    settingKindNonNegFloat,
}

// SettingKeys returns every key accepted by Set.
func SettingKeys() []string {
	return []string{
		KeySearchTopK, KeySearchAlpha, KeySearchOverfetch,
		KeyLexicalTokenizer, KeyLexicalK1, KeyLexicalB,
		KeyVectorM, KeyVectorEfConstruct, KeyVectorEfSearch, KeyVectorSeed,
		KeyEmbedProvider, KeyEmbedModel, KeyEmbedBaseURL, KeyEmbedAPIKey,
		KeyEmbedDimensions, KeyEmbedRateLimit,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// Unset keys take their defaults; an unset OpenAI key falls back to OPENAI_API_KEY.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			TopK:      s.getInt(KeySearchTopK, defaults.Search.TopK),
			Alpha:     s.getFloat(KeySearchAlpha, defaults.Search.Alpha),
			Overfetch: s.getInt(KeySearchOverfetch, defaults.Search.Overfetch),
		},
		Lexical: domain.LexicalSettings{
			Tokenizer: s.getString(KeyLexicalTokenizer, defaults.Lexical.Tokenizer),
			K1:        s.getFloat(KeyLexicalK1, defaults.Lexical.K1),
			B:         s.getFloat(KeyLexicalB, defaults.Lexical.B),
		},
		Vector: domain.VectorSettings{
			M:              s.getInt(KeyVectorM, defaults.Vector.M),
			EfConstruction: s.getInt(KeyVectorEfConstruct, defaults.Vector.EfConstruction),
			EfSearch:       s.getInt(KeyVectorEfSearch, defaults.Vector.EfSearch),
			Seed:           uint64(s.getInt(KeyVectorSeed, int(defaults.Vector.Seed))), //nolint:gosec // seed is stored non-negative
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.configStore.GetString(KeyEmbedModel),
			BaseURL:    s.configStore.GetString(KeyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(KeyEmbedAPIKey),
			Dimensions: s.getInt(KeyEmbedDimensions, 0),
			RateLimit:  s.getFloat(KeyEmbedRateLimit, 0),
		},
	}

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Embedding.Provider == domain.AIProviderHashing && settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = defaults.Embedding.Dimensions
	}
	if settings.Embedding.APIKey == "" && !settings.Embedding.Provider.IsLocal() {
		settings.Embedding.APIKey = s.getenv(envOpenAIAPIKey)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeySearchTopK, settings.Search.TopK},
		{KeySearchAlpha, settings.Search.Alpha},
		{KeySearchOverfetch, settings.Search.Overfetch},
		{KeyLexicalTokenizer, settings.Lexical.Tokenizer},
		{KeyLexicalK1, settings.Lexical.K1},
		{KeyLexicalB, settings.Lexical.B},
		{KeyVectorM, settings.Vector.M},
		{KeyVectorEfConstruct, settings.Vector.EfConstruction},
		{KeyVectorEfSearch, settings.Vector.EfSearch},
		{KeyVectorSeed, int64(settings.Vector.Seed)}, //nolint:gosec // seeds fit in int64
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedDimensions, settings.Embedding.Dimensions},
		{KeyEmbedRateLimit, settings.Embedding.RateLimit},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.getenv(envOpenAIAPIKey) {
		if err := s.configStore.Set(KeyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyEmbedAPIKey, err)
		}
	}

	return nil
}

// Set parses value according to key and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, key)
	}

	var parsed any
	switch kind {
	case settingKindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrInvalidArgument, key, value)
		}
		parsed = n

	case settingKindUnit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidArgument, key, value)
		}
		if err := domain.ValidateAlpha(f); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		parsed = f

	case settingKindNonNegFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %q", domain.ErrInvalidArgument, key, value)
		}
		parsed = f

	case settingKindProvider:
		provider := domain.AIProvider(value)
		if !provider.IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrUnsupportedType, value)
		}
		parsed = provider.String()

	case settingKindTokenizer:
		if !domain.IsKnownTokenizer(value) {
			return fmt.Errorf("%w: invalid tokenizer: %s", domain.ErrUnsupportedType, value)
		}
		parsed = value

	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrUnsupportedType, provider)
	}

	if apiKey == "" && provider.RequiresAPIKey() {
		apiKey = s.getenv(envOpenAIAPIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Set base URL based on provider type
	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	case domain.AIProviderLangChain:
		// OpenAI-compatible endpoints keep whatever URL was configured
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Update vector dimensions based on model
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	} else if provider != domain.AIProviderHashing {
		settings.Embedding.Dimensions = 0
	}

	return s.Save(settings)
}

// Validate checks that the current settings can build an engine.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Search.TopK < 0 {
		return fmt.Errorf("%w: %s must be >= 0", domain.ErrInvalidArgument, KeySearchTopK)
	}
	if err := domain.ValidateAlpha(settings.Search.Alpha); err != nil {
		return fmt.Errorf("%s: %w", KeySearchAlpha, err)
	}
	if !domain.IsKnownTokenizer(settings.Lexical.Tokenizer) {
		return fmt.Errorf("%w: invalid tokenizer: %s", domain.ErrUnsupportedType, settings.Lexical.Tokenizer)
	}
	if settings.Vector.M < 2 {
		return fmt.Errorf("%w: %s must be >= 2", domain.ErrInvalidArgument, KeyVectorM)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
