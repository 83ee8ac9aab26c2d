package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
)

// errNotConfigured is returned when a command runs without its services wired.
var errNotConfigured = errors.New("services not configured")

// QueryOptions controls how query services are opened.
type QueryOptions struct {
	// RequireLLM fails the open when no generator can be created.
	RequireLLM bool

	// CorpusPath, when set, embeds this corpus into a throwaway in-memory
	// index instead of loading the persisted one.
	CorpusPath string
}

// QueryServices are the services that answer queries against a loaded index.
type QueryServices struct {
	Retrieval driving.RetrievalService

	// Answer is nil when no LLM is configured and RequireLLM was false.
	Answer driving.AnswerService

	// Warnings are non-fatal problems found while opening, such as an
	// unreachable LLM.
	Warnings []string

	// Close releases provider clients. May be nil.
	Close func()
}

// BuildOptions controls how the index builder is opened.
type BuildOptions struct {
	// CorpusPath overrides the configured corpus location when set.
	CorpusPath string
}

// Builder is an opened index builder.
type Builder struct {
	Service driving.IndexBuilderService

	// CorpusPath is the resolved corpus location.
	CorpusPath string

	// Close releases provider clients. May be nil.
	Close func()
}

// CorpusWatcher reports corpus changes.
type CorpusWatcher interface {
	Watch(ctx context.Context) (<-chan string, error)
	Close() error
}

// Dependencies are the factories the commands use to reach the core.
// main wires the real implementations.
type Dependencies struct {
	Settings driving.SettingsService

	OpenBuilder func(ctx context.Context, opts BuildOptions) (*Builder, error)
	OpenQuery   func(ctx context.Context, opts QueryOptions) (*QueryServices, error)
	IndexInfo   func(ctx context.Context) (domain.IndexInfo, error)
	NewWatcher  func(path string) CorpusWatcher
}

var (
	deps            *Dependencies
	settingsService driving.SettingsService
)

// SetDependencies wires the command factories.
func SetDependencies(d *Dependencies) {
	deps = d
	settingsService = nil
	if d != nil {
		settingsService = d.Settings
	}
}

func openQuery(ctx context.Context, opts QueryOptions) (*QueryServices, error) {
	if deps == nil || deps.OpenQuery == nil {
		return nil, errNotConfigured
	}
	return deps.OpenQuery(ctx, opts)
}

func (q *QueryServices) close() {
	if q != nil && q.Close != nil {
		q.Close()
	}
}
