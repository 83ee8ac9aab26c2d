package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

func testReport() *domain.BuildReport {
	return &domain.BuildReport{
		BuildID:    "b-1",
		Rows:       3,
		Dimensions: 256,
		Model:      "fnv-bow-256",
		Location:   "/tmp/faqbot/index",
		Duration:   1500 * time.Millisecond,
	}
}

func TestBuildCmd_NotConfigured(t *testing.T) {
	setupTestDependencies(t, nil)

	_, _, err := executeCommand(t, "", "build")

	assert.ErrorIs(t, err, errNotConfigured)
}

func TestBuildCmd_PrintsReport(t *testing.T) {
	builder := &mockBuilder{report: testReport()}
	var gotOpts BuildOptions
	setupTestDependencies(t, &Dependencies{
		OpenBuilder: func(_ context.Context, opts BuildOptions) (*Builder, error) {
			gotOpts = opts
			return &Builder{Service: builder, CorpusPath: "faq.jsonl"}, nil
		},
	})

	out, _, err := executeCommand(t, "", "build", "--corpus", "other.jsonl")

	require.NoError(t, err)
	assert.Equal(t, "other.jsonl", gotOpts.CorpusPath)
	assert.Equal(t, 1, builder.calls)
	assert.Contains(t, out, "Indexed 3 FAQs -> /tmp/faqbot/index")
	assert.Contains(t, out, "model fnv-bow-256, 256 dimensions, build b-1 (1.5s)")
}

func TestBuildCmd_ClosesBuilder(t *testing.T) {
	closed := false
	setupTestDependencies(t, &Dependencies{
		OpenBuilder: func(context.Context, BuildOptions) (*Builder, error) {
			return &Builder{
				Service: &mockBuilder{report: testReport()},
				Close:   func() { closed = true },
			}, nil
		},
	})

	_, _, err := executeCommand(t, "", "build")

	require.NoError(t, err)
	assert.True(t, closed)
}

func TestBuildCmd_OpenError(t *testing.T) {
	setupTestDependencies(t, &Dependencies{
		OpenBuilder: func(context.Context, BuildOptions) (*Builder, error) {
			return nil, domain.ErrEmbeddingUnavailable
		},
	})

	_, _, err := executeCommand(t, "", "build")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestBuildCmd_RebuildError(t *testing.T) {
	builder := &mockBuilder{errs: map[int]error{1: domain.ErrCorpusValidation}}
	setupTestDependencies(t, &Dependencies{
		OpenBuilder: func(context.Context, BuildOptions) (*Builder, error) {
			return &Builder{Service: builder}, nil
		},
	})

	_, _, err := executeCommand(t, "", "build")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCorpusValidation)
	assert.Contains(t, err.Error(), "build failed")
}

func TestBuildCmd_WatchRebuildsOnChange(t *testing.T) {
	builder := &mockBuilder{
		report: testReport(),
		errs:   map[int]error{2: errors.New("embedder down")},
	}
	watcher := &fakeWatcher{changes: []string{"faq.jsonl", "faq.jsonl"}}
	var watchedPath string
	setupTestDependencies(t, &Dependencies{
		OpenBuilder: func(context.Context, BuildOptions) (*Builder, error) {
			return &Builder{Service: builder, CorpusPath: "faq.jsonl"}, nil
		},
		NewWatcher: func(path string) CorpusWatcher {
			watchedPath = path
			return watcher
		},
	})

	out, _, err := executeCommand(t, "", "build", "--watch")

	require.NoError(t, err)
	assert.Equal(t, "faq.jsonl", watchedPath)
	assert.Equal(t, 3, builder.calls)
	assert.True(t, watcher.closed)
	assert.Contains(t, out, "Watching faq.jsonl for changes")
	assert.Contains(t, out, "Rebuild failed, keeping previous index: build failed: embedder down")
}

func TestBuildCmd_WatchError(t *testing.T) {
	setupTestDependencies(t, &Dependencies{
		OpenBuilder: func(context.Context, BuildOptions) (*Builder, error) {
			return &Builder{Service: &mockBuilder{report: testReport()}, CorpusPath: "faq.jsonl"}, nil
		},
		NewWatcher: func(string) CorpusWatcher {
			return &fakeWatcher{watchErr: errors.New("no such directory")}
		},
	})

	_, _, err := executeCommand(t, "", "build", "--watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch faq.jsonl")
}

func TestBuildCmd_WatchWithoutWatcher(t *testing.T) {
	setupTestDependencies(t, &Dependencies{
		OpenBuilder: func(context.Context, BuildOptions) (*Builder, error) {
			return &Builder{Service: &mockBuilder{report: testReport()}}, nil
		},
	})

	_, _, err := executeCommand(t, "", "build", "--watch")

	assert.ErrorIs(t, err, errNotConfigured)
}
