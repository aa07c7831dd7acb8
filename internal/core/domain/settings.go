package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the in-process hashing embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (hashing, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// BlobProvider identifies a durable storage backend.
type BlobProvider string

// Available blob providers.
const (
	BlobProviderFilesystem BlobProvider = "filesystem"
	BlobProviderMemory     BlobProvider = "memory"
	BlobProviderGCS        BlobProvider = "gcs"
)

// IsValid returns true if the blob provider is recognised.
func (p BlobProvider) IsValid() bool {
	switch p {
	case BlobProviderFilesystem, BlobProviderMemory, BlobProviderGCS:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p BlobProvider) String() string {
	return string(p)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// Dimensions is the vector size the model produces.
	Dimensions int

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of chunks per embedding request.
	BatchSize int

	// Workers bounds concurrent embedding requests during a build.
	Workers int

	// RatePerSecond limits embedding requests. Zero means unlimited.
	RatePerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64

	// Timeout bounds a single generation call.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures the recursive splitter.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// RetrievalSettings configures question answering.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// ContextTokens is the context budget, estimated at 4 characters per token.
	ContextTokens int

	// MaxTurns bounds generation calls per question.
	MaxTurns int
}

// StorageSettings configures durable storage of uploads and indexes.
type StorageSettings struct {
	Provider BlobProvider

	// Root is the directory used by the filesystem provider.
	Root string

	// Bucket is the GCS bucket name.
	Bucket string

	// CredentialsFile is a service account JSON file for GCS.
	CredentialsFile string

	// AccessToken is a static OAuth2 token for GCS, used when no credentials file is set.
	AccessToken string

	// LinkTTL is how long download links stay valid.
	LinkTTL time.Duration
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Address string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Storage   StorageSettings
	Server    ServerSettings
}

// Default values for settings.
const (
	DefaultChunkSize          = 1000
	DefaultChunkOverlap       = 200
	DefaultTopK               = 4
	DefaultContextTokens      = 3000
	DefaultMaxTurns           = 3
	DefaultTemperature        = 0.7
	DefaultGenerationTimeout  = 600 * time.Second
	DefaultEmbeddingBatchSize = 32
	DefaultEmbeddingWorkers   = 4
	DefaultLinkTTL            = time.Hour
	DefaultServerAddress      = ":8000"
	DefaultLocalModel         = "local-hashing"
	DefaultLocalDimensions    = 384
)

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings work offline out of the box; the LLM is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Model:      DefaultLocalModel,
			Dimensions: DefaultLocalDimensions,
			BatchSize:  DefaultEmbeddingBatchSize,
			Workers:    DefaultEmbeddingWorkers,
		},
		LLM: LLMSettings{
			Temperature: DefaultTemperature,
			Timeout:     DefaultGenerationTimeout,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:          DefaultTopK,
			ContextTokens: DefaultContextTokens,
			MaxTurns:      DefaultMaxTurns,
		},
		Storage: StorageSettings{
			Provider: BlobProviderFilesystem,
			LinkTTL:  DefaultLinkTTL,
		},
		Server: ServerSettings{
			Address: DefaultServerAddress,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  DefaultLocalModel,
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		DefaultLocalModel: DefaultLocalDimensions,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
