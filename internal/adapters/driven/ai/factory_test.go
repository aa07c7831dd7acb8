package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantModel   string
		wantDims    int
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name:      "local provider needs nothing else",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderLocal},
			wantModel: domain.DefaultLocalModel,
			wantDims:  domain.DefaultLocalDimensions,
		},
		{
			name: "ollama dimensions come from the known model table",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "all-minilm",
			},
			wantModel: "all-minilm",
			wantDims:  384,
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-large",
			},
			wantModel: "text-embedding-3-large",
			wantDims:  3072,
		},
		{
			name: "explicit dimensions win",
			settings: &domain.EmbeddingSettings{
				Provider:   domain.AIProviderOpenAI,
				APIKey:     "test-key",
				Model:      "text-embedding-3-small",
				Dimensions: 256,
			},
			wantModel: "text-embedding-3-small",
			wantDims:  256,
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{"nil settings returns nil", nil, true},
		{"unconfigured settings returns nil", &domain.LLMSettings{}, true},
		{"local is not an LLM provider", &domain.LLMSettings{Provider: domain.AIProviderLocal}, true},
		{"openai without key is not configured", &domain.LLMSettings{Provider: domain.AIProviderOpenAI}, true},
		{
			"ollama provider creates service",
			&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: "http://localhost:11434", Model: "llama3.2"},
			false,
		},
		{
			"openai provider creates service",
			&domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "test-key", Model: "gpt-4o-mini"},
			false,
		},
		{
			"anthropic provider creates service",
			&domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "test-key", Model: "claude-3-5-sonnet-latest"},
			false,
		},
		{"unknown provider returns nil (not configured)", &domain.LLMSettings{Provider: "unknown", APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("defaults give local embeddings and no LLM", func(t *testing.T) {
		settings := domain.DefaultAppSettings()

		result, err := Init(&settings)
		require.NoError(t, err)
		defer result.Close()

		require.NotNil(t, result.EmbeddingService)
		assert.Equal(t, domain.DefaultLocalModel, result.EmbeddingService.ModelName())
		assert.Nil(t, result.LLMService)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "LLM not configured")
	})

	t.Run("configured LLM", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM.Provider = domain.AIProviderOllama
		settings.LLM.Model = "llama3.2"

		result, err := Init(&settings)
		require.NoError(t, err)
		defer result.Close()

		assert.NotNil(t, result.LLMService)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unusable embedding configuration fails", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = domain.AIProviderAnthropic

		_, err := Init(&settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("embedding provider missing key fails", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = domain.AIProviderOpenAI

		_, err := Init(&settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}
