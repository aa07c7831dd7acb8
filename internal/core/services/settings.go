package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider   = "embedding.provider"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedDimensions = "embedding.dimensions"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedBatchSize  = "embedding.batch_size"
	KeyEmbedWorkers    = "embedding.workers"
	KeyEmbedRate       = "embedding.rate_per_second"

	KeyLLMProvider    = "llm.provider"
	KeyLLMModel       = "llm.model"
	KeyLLMBaseURL     = "llm.base_url"
	KeyLLMAPIKey      = "llm.api_key"
	KeyLLMTemperature = "llm.temperature"
	KeyLLMTimeout     = "llm.timeout"

	KeyChunkSize    = "chunking.size"
	KeyChunkOverlap = "chunking.overlap"

	KeyTopK          = "retrieval.top_k"
	KeyContextTokens = "retrieval.context_tokens"
	KeyMaxTurns      = "retrieval.max_turns"

	KeyStorageProvider    = "storage.provider"
	KeyStorageRoot        = "storage.root"
	KeyStorageBucket      = "storage.bucket"
	KeyStorageCredentials = "storage.credentials_file"
	KeyStorageToken       = "storage.access_token"
	KeyStorageLinkTTL     = "storage.link_ttl"

	KeyServerAddress = "server.address"
)

// Environment variables consulted when the matching key is unset.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv replaces os.Getenv for environment fallbacks.
func WithEnv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		if getenv != nil {
			s.getenv = getenv
		}
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
// Unset or invalid keys take their defaults; API keys and the Ollama host
// fall back to the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:      s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider),
			Model:         s.configStore.GetString(KeyEmbedModel),
			Dimensions:    s.configStore.GetInt(KeyEmbedDimensions),
			BaseURL:       s.configStore.GetString(KeyEmbedBaseURL),
			APIKey:        s.configStore.GetString(KeyEmbedAPIKey),
			BatchSize:     s.getInt(KeyEmbedBatchSize, defaults.Embedding.BatchSize),
			Workers:       s.getInt(KeyEmbedWorkers, defaults.Embedding.Workers),
			RatePerSecond: s.configStore.GetFloat(KeyEmbedRate),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(KeyLLMProvider, defaults.LLM.Provider),
			Model:       s.configStore.GetString(KeyLLMModel),
			BaseURL:     s.configStore.GetString(KeyLLMBaseURL),
			APIKey:      s.configStore.GetString(KeyLLMAPIKey),
			Temperature: s.getFloat(KeyLLMTemperature, defaults.LLM.Temperature),
			Timeout:     s.getDuration(KeyLLMTimeout, defaults.LLM.Timeout),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(KeyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(KeyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:          s.getInt(KeyTopK, defaults.Retrieval.TopK),
			ContextTokens: s.getInt(KeyContextTokens, defaults.Retrieval.ContextTokens),
			MaxTurns:      s.getInt(KeyMaxTurns, defaults.Retrieval.MaxTurns),
		},
		Storage: domain.StorageSettings{
			Provider:        s.getBlobProvider(defaults.Storage.Provider),
			Root:            s.configStore.GetString(KeyStorageRoot),
			Bucket:          s.configStore.GetString(KeyStorageBucket),
			CredentialsFile: s.configStore.GetString(KeyStorageCredentials),
			AccessToken:     s.configStore.GetString(KeyStorageToken),
			LinkTTL:         s.getDuration(KeyStorageLinkTTL, defaults.Storage.LinkTTL),
		},
		Server: domain.ServerSettings{
			Address: s.getString(KeyServerAddress, defaults.Server.Address),
		},
	}

	s.fillEmbeddingDefaults(&settings.Embedding)
	s.fillLLMDefaults(&settings.LLM)
	return settings, nil
}

func (s *SettingsService) fillEmbeddingDefaults(e *domain.EmbeddingSettings) {
	if e.Model == "" {
		e.Model = domain.DefaultEmbeddingModels()[e.Provider]
	}
	if e.Dimensions == 0 {
		e.Dimensions = domain.EmbeddingDimensions()[e.Model]
	}
	switch e.Provider {
	case domain.AIProviderOpenAI:
		if e.APIKey == "" {
			e.APIKey = s.getenv(EnvOpenAIKey)
		}
	case domain.AIProviderOllama:
		if e.BaseURL == "" {
			e.BaseURL = s.ollamaURL()
		}
	}
}

func (s *SettingsService) fillLLMDefaults(l *domain.LLMSettings) {
	if l.Provider == "" {
		return
	}
	if l.Model == "" {
		l.Model = domain.DefaultLLMModels()[l.Provider]
	}
	switch l.Provider {
	case domain.AIProviderOpenAI:
		if l.APIKey == "" {
			l.APIKey = s.getenv(EnvOpenAIKey)
		}
	case domain.AIProviderAnthropic:
		if l.APIKey == "" {
			l.APIKey = s.getenv(EnvAnthropicKey)
		}
	case domain.AIProviderOllama:
		if l.BaseURL == "" {
			l.BaseURL = s.ollamaURL()
		}
	}
}

func (s *SettingsService) ollamaURL() string {
	if host := s.getenv(EnvOllamaHost); host != "" {
		return host
	}
	return defaultOllamaURL
}

// Save persists application settings.
// Empty strings and zero values are written as is except API keys, which
// are only written when set so environment fallbacks keep working.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedDimensions, settings.Embedding.Dimensions},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedBatchSize, settings.Embedding.BatchSize},
		{KeyEmbedWorkers, settings.Embedding.Workers},
		{KeyEmbedRate, settings.Embedding.RatePerSecond},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyLLMTemperature, settings.LLM.Temperature},
		{KeyLLMTimeout, settings.LLM.Timeout.String()},
		{KeyChunkSize, settings.Chunking.Size},
		{KeyChunkOverlap, settings.Chunking.Overlap},
		{KeyTopK, settings.Retrieval.TopK},
		{KeyContextTokens, settings.Retrieval.ContextTokens},
		{KeyMaxTurns, settings.Retrieval.MaxTurns},
		{KeyStorageProvider, settings.Storage.Provider.String()},
		{KeyStorageRoot, settings.Storage.Root},
		{KeyStorageBucket, settings.Storage.Bucket},
		{KeyStorageCredentials, settings.Storage.CredentialsFile},
		{KeyStorageLinkTTL, settings.Storage.LinkTTL.String()},
		{KeyServerAddress, settings.Server.Address},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := map[string]string{
		KeyEmbedAPIKey:  settings.Embedding.APIKey,
		KeyLLMAPIKey:    settings.LLM.APIKey,
		KeyStorageToken: settings.Storage.AccessToken,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// Changing the model invalidates existing indexes built with another one.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidArgument, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidArgument, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" && provider == domain.AIProviderOpenAI {
		apiKey = s.getenv(EnvOpenAIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidArgument, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]
	settings.Embedding.APIKey = apiKey

	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = s.ollamaURL()
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidArgument, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		switch provider {
		case domain.AIProviderOpenAI:
			apiKey = s.getenv(EnvOpenAIKey)
		case domain.AIProviderAnthropic:
			apiKey = s.getenv(EnvAnthropicKey)
		}
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidArgument, provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.APIKey = apiKey

	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = s.ollamaURL()
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	return s.Save(settings)
}

// Validate checks that current settings are internally consistent.
// An unconfigured LLM is not an error; questions fail until one is set.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch {
	case !settings.Embedding.IsConfigured():
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrInvalidArgument, settings.Embedding.Provider)
	case settings.Embedding.Dimensions <= 0:
		return fmt.Errorf("%w: embedding model %q has unknown dimensions; set %s",
			domain.ErrInvalidArgument, settings.Embedding.Model, KeyEmbedDimensions)
	case settings.Chunking.Size <= 0 || settings.Chunking.Overlap < 0:
		return fmt.Errorf("%w: chunk size must be positive and overlap non-negative", domain.ErrInvalidArgument)
	case settings.Chunking.Overlap >= settings.Chunking.Size:
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidArgument, settings.Chunking.Overlap, settings.Chunking.Size)
	case settings.Storage.Provider == domain.BlobProviderGCS && settings.Storage.Bucket == "":
		return fmt.Errorf("%w: storage provider gcs requires %s", domain.ErrInvalidArgument, KeyStorageBucket)
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

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
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
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
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

func (s *SettingsService) getBlobProvider(defaultVal domain.BlobProvider) domain.BlobProvider {
	val := s.configStore.GetString(KeyStorageProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.BlobProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
