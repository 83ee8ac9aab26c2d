package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/faqbot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// newTestSettingsService returns a service that sees only the given environment.
func newTestSettingsService(store *memory.ConfigStore, env map[string]string) *SettingsService {
	service := NewSettingsService(store, nil)
	service.getenv = func(key string) string { return env[key] }
	return service
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("retrieval.top_k", int64(3))
	_ = store.Set("retrieval.threshold", 0.25)
	_ = store.Set("index.format", "sqlite")
	_ = store.Set("index.dir", "/var/lib/faqbot")
	_ = store.Set("corpus.path", "data/faq.jsonl")
	_ = store.Set("build.rate_limit", 2.5)
	_ = store.Set("server.addr", ":9000")
	_ = store.Set("server.request_timeout", "15s")
	service := newTestSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, 3, settings.Retrieval.TopK)
	assert.InDelta(t, 0.25, settings.Retrieval.Threshold, 1e-9)
	assert.Equal(t, domain.IndexFormatSQLite, settings.Index.Format)
	assert.Equal(t, "/var/lib/faqbot", settings.Index.Dir)
	assert.Equal(t, "data/faq.jsonl", settings.Corpus.Path)
	assert.InDelta(t, 2.5, settings.Build.RateLimit, 1e-9)
	assert.Equal(t, ":9000", settings.Server.Addr)
	assert.Equal(t, 15*time.Second, settings.Server.RequestTimeout)
}

func TestSettingsService_Get_ZeroThresholdIsKept(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("retrieval.threshold", int64(0))
	service := newTestSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Zero(t, settings.Retrieval.Threshold)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("index.format", "parquet")
	_ = store.Set("server.request_timeout", "soon")
	service := newTestSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Index.Format, settings.Index.Format)
	assert.Equal(t, defaults.Server.RequestTimeout, settings.Server.RequestTimeout)
}

func TestSettingsService_Get_EnvironmentKeys(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		stored   string
		env      map[string]string
		want     string
	}{
		{"gemini from GOOGLE_API_KEY", "gemini", "", map[string]string{"GOOGLE_API_KEY": "g1"}, "g1"},
		{"gemini from GEMINI_API_KEY", "gemini", "", map[string]string{"GEMINI_API_KEY": "g2"}, "g2"},
		{"google wins over gemini", "gemini", "",
			map[string]string{"GOOGLE_API_KEY": "g1", "GEMINI_API_KEY": "g2"}, "g1"},
		{"stored key wins over provider env", "openai", "stored", map[string]string{"OPENAI_API_KEY": "env"}, "stored"},
		{"override wins over stored key", "anthropic", "stored",
			map[string]string{"FAQBOT_LLM_API_KEY": "override"}, "override"},
		{"no key", "openai", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			_ = store.Set("llm.provider", tt.provider)
			if tt.stored != "" {
				_ = store.Set("llm.api_key", tt.stored)
			}
			service := newTestSettingsService(store, tt.env)

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.want, settings.LLM.APIKey)
		})
	}
}

func TestSettingsService_Get_EmbeddingOverride(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	service := newTestSettingsService(store, map[string]string{
		"FAQBOT_EMBEDDING_API_KEY": "embed-key",
		"OPENAI_API_KEY":           "openai-key",
	})

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "embed-key", settings.Embedding.APIKey)
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{
		Provider:   domain.AIProviderOpenAI,
		Model:      "text-embedding-3-small",
		APIKey:     "sk-test-key",
		Dimensions: 1536,
	}
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderGemini,
		Model:    "gemini-2.0-flash",
		APIKey:   "g-key",
	}
	settings.Retrieval = domain.RetrievalSettings{TopK: 8, Threshold: 0.3}
	settings.Index = domain.IndexSettings{Dir: "/tmp/idx", Format: domain.IndexFormatSQLite}
	settings.Build = domain.BuildSettings{BatchSize: 4, RateLimit: 1.5, Burst: 2}
	settings.Server.RequestTimeout = 30 * time.Second

	require.NoError(t, service.Save(&settings))

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *retrieved)
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKeys(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.provider", "anthropic")
	service := newTestSettingsService(store, map[string]string{"ANTHROPIC_API_KEY": "from-env"})

	settings, err := service.Get()
	require.NoError(t, err)
	require.Equal(t, "from-env", settings.LLM.APIKey)

	require.NoError(t, service.Save(settings))
	_, exists := store.Get("llm.api_key")
	assert.False(t, exists)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_CloudClearsBaseURL(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.base_url", "http://gpu-box:11434")
	service := newTestSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-1"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, "sk-1", settings.Embedding.APIKey)
	assert.Equal(t, 3072, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	assert.Error(t, service.SetEmbeddingProvider("invalid", "", ""))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_SetEmbeddingProvider_KeyFromEnvironment(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), map[string]string{"OPENAI_API_KEY": "sk-env"})

	assert.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderGemini, "", "g-key"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, settings.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", settings.LLM.Model)
	assert.Equal(t, "g-key", settings.LLM.APIKey)
}

func TestSettingsService_SetLLMProvider_Errors(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	assert.Error(t, service.SetLLMProvider("invalid", "", ""))
	assert.Error(t, service.SetLLMProvider(domain.AIProviderHash, "", ""))
	assert.Error(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))
}

func TestSettingsService_SetRetrieval(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetRetrieval(3, 0.7))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.RetrievalOptions{TopK: 3, Threshold: 0.7}, settings.Retrieval.Options())

	assert.ErrorIs(t, service.SetRetrieval(0, 0.5), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.SetRetrieval(5, 2), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.SetRetrieval(5, math.NaN()), domain.ErrInvalidInput)

	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, 0.7, settings.Retrieval.Threshold)
}

func TestSettingsService_SetIndex(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetIndex("/data/index", domain.IndexFormatSQLite))
	require.NoError(t, service.SetIndex("", domain.IndexFormatFile))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "/data/index", settings.Index.Dir)
	assert.Equal(t, domain.IndexFormatFile, settings.Index.Format)

	assert.ErrorIs(t, service.SetIndex("", "csv"), domain.ErrInvalidInput)
}

func TestSettingsService_SetCorpusPath(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetCorpusPath("faq.jsonl"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "faq.jsonl", settings.Corpus.Path)

	assert.ErrorIs(t, service.SetCorpusPath("  "), domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr bool
	}{
		{"defaults", nil, false},
		{"openai without key", map[string]any{"embedding.provider": "openai"}, true},
		{"llm without key", map[string]any{"llm.provider": "anthropic"}, true},
		{"llm configured", map[string]any{"llm.provider": "ollama"}, false},
		{"bad threshold", map[string]any{"retrieval.threshold": 1.5}, true},
		{"negative top k", map[string]any{"retrieval.top_k": -2}, true},
		{"negative batch", map[string]any{"build.batch_size": -1}, true},
		{"negative rate", map[string]any{"build.rate_limit": -0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.values {
				_ = store.Set(k, v)
			}
			err := newTestSettingsService(store, nil).Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

type mockAIConfigValidator struct {
	embedErr error
	llmErr   error
	embedArg *domain.EmbeddingSettings
	llmArg   *domain.LLMSettings
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ context.Context, s *domain.EmbeddingSettings) error {
	m.embedArg = s
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ context.Context, s *domain.LLMSettings) error {
	m.llmArg = s
	return m.llmErr
}

func TestSettingsService_ValidateConfig_NilValidator(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.NoError(t, service.ValidateEmbeddingConfig(context.Background()))
	assert.NoError(t, service.ValidateLLMConfig(context.Background()))
}

func TestSettingsService_ValidateConfig_UsesCurrentSettings(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.provider", "ollama")
	validator := &mockAIConfigValidator{}
	service := NewSettingsService(store, validator)

	require.NoError(t, service.ValidateEmbeddingConfig(context.Background()))
	require.NoError(t, service.ValidateLLMConfig(context.Background()))

	require.NotNil(t, validator.embedArg)
	assert.Equal(t, domain.AIProviderHash, validator.embedArg.Provider)
	require.NotNil(t, validator.llmArg)
	assert.Equal(t, domain.AIProviderOllama, validator.llmArg.Provider)
}

func TestSettingsService_ValidateConfig_Errors(t *testing.T) {
	validator := &mockAIConfigValidator{
		embedErr: errors.New("embedding unreachable"),
		llmErr:   errors.New("llm unreachable"),
	}
	service := NewSettingsService(memory.NewConfigStore(), validator)

	assert.EqualError(t, service.ValidateEmbeddingConfig(context.Background()), "embedding unreachable")
	assert.EqualError(t, service.ValidateLLMConfig(context.Background()), "llm unreachable")
}
