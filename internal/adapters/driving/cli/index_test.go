package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

func testIndexInfo() domain.IndexInfo {
	return domain.IndexInfo{
		Rows:       42,
		Dimensions: 768,
		Manifest: domain.IndexManifest{
			BuildID:    "b-7",
			Model:      "nomic-embed-text",
			Dimensions: 768,
			Rows:       42,
			CorpusPath: "faq_pairs.jsonl",
			CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestIndexInfoCmd_Prints(t *testing.T) {
	setupTestDependencies(t, &Dependencies{
		IndexInfo: func(context.Context) (domain.IndexInfo, error) { return testIndexInfo(), nil },
	})

	out, _, err := executeCommand(t, "", "index", "info")

	require.NoError(t, err)
	assert.Contains(t, out, "Records:     42")
	assert.Contains(t, out, "Dimensions:  768")
	assert.Contains(t, out, "Model:       nomic-embed-text")
	assert.Contains(t, out, "Build:       b-7")
	assert.Contains(t, out, "Created:     2025-03-01 12:00:00 UTC")
	assert.Contains(t, out, "Corpus:      faq_pairs.jsonl")
}

func TestIndexInfoCmd_JSON(t *testing.T) {
	setupTestDependencies(t, &Dependencies{
		IndexInfo: func(context.Context) (domain.IndexInfo, error) { return testIndexInfo(), nil },
	})

	out, _, err := executeCommand(t, "", "index", "info", "--json")

	require.NoError(t, err)
	var got domain.IndexInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 42, got.Rows)
	assert.Equal(t, "b-7", got.Manifest.BuildID)
}

func TestIndexInfoCmd_NotBuilt(t *testing.T) {
	setupTestDependencies(t, &Dependencies{
		IndexInfo: func(context.Context) (domain.IndexInfo, error) {
			return domain.IndexInfo{}, domain.ErrIndexNotBuilt
		},
	})

	_, _, err := executeCommand(t, "", "index", "info")

	assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)
}

func TestIndexInfoCmd_NotConfigured(t *testing.T) {
	setupTestDependencies(t, nil)

	_, _, err := executeCommand(t, "", "index", "info")

	assert.ErrorIs(t, err, errNotConfigured)
}
