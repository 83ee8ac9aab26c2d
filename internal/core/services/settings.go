package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyTopK            = "retrieval.top_k"
	keyThreshold       = "retrieval.threshold"
	keyIndexDir        = "index.dir"
	keyIndexFormat     = "index.format"
	keyCorpusPath      = "corpus.path"
	keyBatchSize       = "build.batch_size"
	keyRateLimit       = "build.rate_limit"
	keyBurst           = "build.burst"
	keyServerAddr      = "server.addr"
	keyRequestTimeout  = "server.request_timeout"
	localProviderURL   = "http://localhost:11434"
	envEmbeddingAPIKey = "FAQBOT_EMBEDDING_API_KEY"
	envLLMAPIKey       = "FAQBOT_LLM_API_KEY"
)

// providerKeyEnv lists the conventional API key variables per provider,
// consulted in order when no key is configured.
var providerKeyEnv = map[domain.AIProvider][]string{
	domain.AIProviderOpenAI:    {"OPENAI_API_KEY"},
	domain.AIProviderAnthropic: {"ANTHROPIC_API_KEY"},
	domain.AIProviderGemini:    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// API keys set in the environment take effect here but are never
// written back by Save.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()

	if key := s.getenv(envEmbeddingAPIKey); key != "" {
		settings.Embedding.APIKey = key
	} else if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}

	if key := s.getenv(envLLMAPIKey); key != "" {
		settings.LLM.APIKey = key
	} else if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
	}

	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:      s.getInt(keyTopK, defaults.Retrieval.TopK),
			Threshold: s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
		},
		Index: domain.IndexSettings{
			Dir:    s.getString(keyIndexDir, defaults.Index.Dir),
			Format: s.getIndexFormat(defaults.Index.Format),
		},
		Corpus: domain.CorpusSettings{
			Path: s.getString(keyCorpusPath, defaults.Corpus.Path),
		},
		Build: domain.BuildSettings{
			BatchSize: s.getInt(keyBatchSize, defaults.Build.BatchSize),
			RateLimit: s.getFloat(keyRateLimit, defaults.Build.RateLimit),
			Burst:     s.getInt(keyBurst, defaults.Build.Burst),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, defaults.Server.Addr),
			RequestTimeout: s.getDuration(keyRequestTimeout, defaults.Server.RequestTimeout),
		},
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyTopK, settings.Retrieval.TopK},
		{keyThreshold, settings.Retrieval.Threshold},
		{keyIndexDir, settings.Index.Dir},
		{keyIndexFormat, settings.Index.Format.String()},
		{keyCorpusPath, settings.Corpus.Path},
		{keyBatchSize, settings.Build.BatchSize},
		{keyRateLimit, settings.Build.RateLimit},
		{keyBurst, settings.Build.Burst},
		{keyServerAddr, settings.Server.Addr},
		{keyRequestTimeout, settings.Server.RequestTimeout.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys that came from the environment stay there.
	if k := settings.Embedding.APIKey; !s.fromEnv(k) {
		if err := s.configStore.Set(keyEmbedAPIKey, k); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if k := settings.LLM.APIKey; !s.fromEnv(k) {
		if err := s.configStore.Set(keyLLMAPIKey, k); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !containsProvider(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envKeyFor(envEmbeddingAPIKey, provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	// A new model invalidates any dimension override.
	settings.Embedding.Dimensions = 0
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !containsProvider(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support text generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envKeyFor(envLLMAPIKey, provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetRetrieval updates the default top-k and threshold.
func (s *SettingsService) SetRetrieval(topK int, threshold float64) error {
	opts := domain.RetrievalOptions{TopK: topK, Threshold: threshold}
	if err := opts.Validate(); err != nil {
		return err
	}

	settings := s.stored()
	settings.Retrieval.TopK = topK
	settings.Retrieval.Threshold = threshold
	return s.Save(settings)
}

// SetIndex updates where and how the index is stored.
// An empty dir keeps the current directory.
func (s *SettingsService) SetIndex(dir string, format domain.IndexFormat) error {
	if !format.IsValid() {
		return fmt.Errorf("%w: unknown index format %q", domain.ErrInvalidInput, format)
	}

	settings := s.stored()
	if dir != "" {
		settings.Index.Dir = dir
	}
	settings.Index.Format = format
	return s.Save(settings)
}

// SetCorpusPath updates the record source location.
func (s *SettingsService) SetCorpusPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: corpus path is empty", domain.ErrInvalidInput)
	}

	settings := s.stored()
	settings.Corpus.Path = path
	return s.Save(settings)
}

// Validate checks that settings are usable for building and serving.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if err := settings.Retrieval.Options().Validate(); err != nil {
		return err
	}
	if !settings.Index.Format.IsValid() {
		return fmt.Errorf("invalid index format: %s", settings.Index.Format)
	}
	if settings.Build.BatchSize < 1 {
		return fmt.Errorf("build batch size must be at least 1, got %d", settings.Build.BatchSize)
	}
	if settings.Build.RateLimit < 0 {
		return fmt.Errorf("build rate limit must not be negative, got %g", settings.Build.RateLimit)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
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

func (s *SettingsService) getIndexFormat(defaultVal domain.IndexFormat) domain.IndexFormat {
	format := domain.IndexFormat(s.configStore.GetString(keyIndexFormat))
	if !format.IsValid() {
		return defaultVal
	}
	return format
}

// providerKey returns the first conventional environment key for provider.
func (s *SettingsService) providerKey(provider domain.AIProvider) string {
	for _, name := range providerKeyEnv[provider] {
		if v := s.getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func (s *SettingsService) envKeyFor(override string, provider domain.AIProvider) string {
	if v := s.getenv(override); v != "" {
		return v
	}
	return s.providerKey(provider)
}

// fromEnv reports whether key is the value of any API key variable.
func (s *SettingsService) fromEnv(key string) bool {
	if key == "" {
		return false
	}
	if key == s.getenv(envEmbeddingAPIKey) || key == s.getenv(envLLMAPIKey) {
		return true
	}
	for _, names := range providerKeyEnv {
		for _, name := range names {
			if key == s.getenv(name) {
				return true
			}
		}
	}
	return false
}

func containsProvider(providers []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor keeps a custom URL for Ollama and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	switch provider {
	case domain.AIProviderOllama:
		if current == "" {
			return localProviderURL
		}
		return current
	default:
		return ""
	}
}
