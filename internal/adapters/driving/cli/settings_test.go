package cli

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestReadLine(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("  first  \nsecond"))

	assert.Equal(t, "first", readLine(reader))
	assert.Equal(t, "second", readLine(reader))
	assert.Equal(t, "", readLine(reader))
}

func TestReadPassword_NonTerminalReadsLine(t *testing.T) {
	in := strings.NewReader("sk-secret\n")
	assert.Equal(t, "sk-secret", readPassword(in, bufio.NewReader(in)))
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	setupTestDependencies(t, nil)

	for _, args := range [][]string{
		{"settings"},
		{"settings", "wizard"},
		{"settings", "embedding"},
		{"settings", "llm"},
		{"settings", "retrieval"},
		{"settings", "index"},
		{"settings", "corpus", "faq.jsonl"},
	} {
		_, _, err := executeCommand(t, "", args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestSettingsShow(t *testing.T) {
	svc := newMockSettingsService()
	svc.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-1234567890abcdef",
	}
	svc.settings.Index.Dir = "/var/lib/faqbot"
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Provider: Feature hashing (built-in, offline)")
	assert.Contains(t, out, "Model: fnv-bow-256")
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Top-k: 5")
	assert.Contains(t, out, "Threshold: 0.50")
	assert.Contains(t, out, "Dir: /var/lib/faqbot")
	assert.Contains(t, out, "Format: file")
	assert.Contains(t, out, "Path: faq_pairs.jsonl")
	assert.Contains(t, out, "Addr: :8000")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_DefaultsAndWarning(t *testing.T) {
	svc := newMockSettingsService()
	svc.validateErr = errors.New("embedding provider not configured")
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Provider: (not set)")
	assert.Contains(t, out, "Dir: (default ~/.faqbot/index)")
	assert.Contains(t, out, "Warning: embedding provider not configured")
	assert.Contains(t, out, "Run 'faqbot settings wizard'")
}

func TestSettingsShow_GetError(t *testing.T) {
	setupTestDependencies(t, &Dependencies{Settings: &mockSettingsService{getErr: errors.New("disk full")}})

	_, _, err := executeCommand(t, "", "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSettingsEmbedding_DefaultChoice(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "\n\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderHash, svc.settings.Embedding.Provider)
	assert.Equal(t, "fnv-bow-256", svc.settings.Embedding.Model)
	assert.True(t, svc.embeddingValidated)
	assert.NotContains(t, out, "API key")
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsEmbedding_OpenAIWithKey(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	_, _, err := executeCommand(t, "3\ntext-embedding-3-large\nsk-test\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, svc.settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", svc.settings.Embedding.Model)
	assert.Equal(t, "sk-test", svc.settings.Embedding.APIKey)
}

func TestSettingsEmbedding_ValidationFails(t *testing.T) {
	svc := newMockSettingsService()
	svc.pingErr = domain.ErrEmbeddingUnavailable
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "2\n\n", "settings", "embedding")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, out, "FAILED")
}

func TestSettingsLLM(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "3\n\nsk-ant-key\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, svc.settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], svc.settings.LLM.Model)
	assert.Equal(t, "sk-ant-key", svc.settings.LLM.APIKey)
	assert.True(t, svc.llmValidated)
	assert.Contains(t, out, "LLM provider configured: Anthropic (cloud)")
}

func TestSettingsWizard(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "1\n\n1\nllama3.1\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderHash, svc.settings.Embedding.Provider)
	assert.Equal(t, domain.AIProviderOllama, svc.settings.LLM.Provider)
	assert.Equal(t, "llama3.1", svc.settings.LLM.Model)
	assert.Contains(t, out, "Configuration Complete!")
	assert.Contains(t, out, "Run 'faqbot build'")
}

func TestSettingsRetrieval(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "", "settings", "retrieval", "--top-k", "3")

	require.NoError(t, err)
	assert.Equal(t, 3, svc.settings.Retrieval.TopK)
	assert.Equal(t, domain.DefaultThreshold, svc.settings.Retrieval.Threshold)
	assert.Contains(t, out, "top-k 3, threshold 0.50")
}

func TestSettingsRetrieval_Invalid(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	_, _, err := executeCommand(t, "", "settings", "retrieval", "--threshold", "1.5")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, domain.DefaultThreshold, svc.settings.Retrieval.Threshold)
}

func TestSettingsRetrieval_NaNThreshold(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	_, _, err := executeCommand(t, "", "settings", "retrieval", "--threshold", "NaN")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, domain.DefaultThreshold, svc.settings.Retrieval.Threshold)
}

func TestSettingsIndex(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "", "settings", "index", "--format", "sqlite", "--dir", "/data/idx")

	require.NoError(t, err)
	assert.Equal(t, domain.IndexSettings{Dir: "/data/idx", Format: domain.IndexFormatSQLite}, svc.settings.Index)
	assert.Contains(t, out, "Index set to /data/idx (sqlite)")
}

func TestSettingsIndex_KeepsUnsetValues(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "", "settings", "index", "--format", "sqlite")

	require.NoError(t, err)
	assert.Empty(t, svc.settings.Index.Dir)
	assert.Contains(t, out, "Index set to default directory (sqlite)")
}

func TestSettingsIndex_InvalidFormat(t *testing.T) {
	setupTestDependencies(t, &Dependencies{Settings: newMockSettingsService()})

	_, _, err := executeCommand(t, "", "settings", "index", "--format", "parquet")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCorpus(t *testing.T) {
	svc := newMockSettingsService()
	setupTestDependencies(t, &Dependencies{Settings: svc})

	out, _, err := executeCommand(t, "", "settings", "corpus", "data/faq.jsonl")

	require.NoError(t, err)
	assert.Equal(t, "data/faq.jsonl", svc.settings.Corpus.Path)
	assert.Contains(t, out, "Corpus set to data/faq.jsonl")
}
