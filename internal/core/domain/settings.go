package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderHash is the built-in feature-hashing embedder.
	// It needs no model and is fully deterministic.
	AIProviderHash AIProvider = "hash"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderHash:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHash
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
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderHash:
		return "Feature hashing (built-in, offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size when non-zero.
	Dimensions int
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

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic/Gemini).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHash {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds query-time policy.
type RetrievalSettings struct {
	// TopK is how many nearest rows are considered per query.
	TopK int

	// Threshold is the minimum similarity for a row to be used as context.
	Threshold float64
}

// Options converts the settings to per-query options.
func (r RetrievalSettings) Options() RetrievalOptions {
	return RetrievalOptions{TopK: r.TopK, Threshold: r.Threshold}
}

// IndexFormat selects how the index is persisted.
type IndexFormat string

// Available index formats.
const (
	// IndexFormatFile stores vectors.bin + metadata.jsonl in generation directories.
	IndexFormatFile IndexFormat = "file"

	// IndexFormatSQLite stores vectors and records in a single SQLite database.
	IndexFormatSQLite IndexFormat = "sqlite"
)

// IsValid returns true if the format is recognised.
func (f IndexFormat) IsValid() bool {
	return f == IndexFormatFile || f == IndexFormatSQLite
}

// String returns the string representation.
func (f IndexFormat) String() string {
	return string(f)
}

// IndexSettings holds where and how the index is stored.
type IndexSettings struct {
	// Dir is the directory holding the index artifacts.
	Dir string

	// Format is the persistence format.
	Format IndexFormat
}

// CorpusSettings locates the record source.
type CorpusSettings struct {
	// Path is the JSONL file of records.
	Path string
}

// BuildSettings tunes the index builder.
type BuildSettings struct {
	// BatchSize is how many subjects are sent per embedding call.
	BatchSize int

	// RateLimit caps embedding calls per second. Zero disables throttling.
	RateLimit float64

	// Burst is the token bucket size when RateLimit is set.
	Burst int
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// RequestTimeout bounds a single request.
	RequestTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Index     IndexSettings
	Corpus    CorpusSettings
	Build     BuildSettings
	Server    ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider defaults to the built-in hashing embedder so a
// fresh install can build and query an index without any model.
// LLM is left unconfigured; users must set it up explicitly.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderHash,
			Model:    DefaultEmbeddingModels()[AIProviderHash],
		},
		LLM: LLMSettings{},
		Retrieval: RetrievalSettings{
			TopK:      DefaultTopK,
			Threshold: DefaultThreshold,
		},
		Index: IndexSettings{
			Format: IndexFormatFile,
		},
		Corpus: CorpusSettings{
			Path: "faq_pairs.jsonl",
		},
		Build: BuildSettings{
			BatchSize: 16,
			Burst:     1,
		},
		Server: ServerSettings{
			Addr:           ":8000",
			RequestTimeout: 60 * time.Second,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHash,
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
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHash:   "fnv-bow-256",
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
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Built-in
		"fnv-bow-256": 256,
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
