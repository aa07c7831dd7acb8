package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// fakeOllama answers /api/tags and returns vectors of dims from /api/embed.
func fakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embed":
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{make([]float32, dims)}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewConfigValidator(t *testing.T) {
	assert.Equal(t, DefaultValidationTimeout, NewConfigValidator().timeout)
	assert.Equal(t, time.Second, NewConfigValidator(WithValidationTimeout(time.Second)).timeout)
	assert.Equal(t, DefaultValidationTimeout, NewConfigValidator(WithValidationTimeout(0)).timeout)
}

func TestConfigValidator_Unconfigured(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateEmbedding(nil))
	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{Model: "test-model"}))
	assert.NoError(t, validator.ValidateLLM(nil))
	assert.NoError(t, validator.ValidateLLM(&domain.LLMSettings{Model: "test-model"}))
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	validator := NewConfigValidator(WithValidationTimeout(2 * time.Second))

	t.Run("local provider", func(t *testing.T) {
		assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderLocal}))
	})

	t.Run("matching dimensions", func(t *testing.T) {
		srv := fakeOllama(t, 8)
		err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
			Provider:   domain.AIProviderOllama,
			BaseURL:    srv.URL,
			Model:      "tiny-embed",
			Dimensions: 8,
		})
		assert.NoError(t, err)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		srv := fakeOllama(t, 4)
		err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
			Provider:   domain.AIProviderOllama,
			BaseURL:    srv.URL,
			Model:      "tiny-embed",
			Dimensions: 8,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "returned 4 dimensions, settings expect 8")
	})

	t.Run("unsupported provider", func(t *testing.T) {
		err := validator.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("unreachable", func(t *testing.T) {
		// Nothing listens on port 1.
		err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  "http://127.0.0.1:1",
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "unreachable")
	})
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	validator := NewConfigValidator(WithValidationTimeout(2 * time.Second))

	t.Run("reachable", func(t *testing.T) {
		srv := fakeOllama(t, 0)
		assert.NoError(t, validator.ValidateLLM(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		}))
	})

	t.Run("service unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := validator.ValidateLLM(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		assert.Contains(t, err.Error(), "unreachable")
	})
}
