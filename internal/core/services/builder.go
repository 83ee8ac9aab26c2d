package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// Ensure IndexBuilder implements the interface.
var _ driving.IndexBuilderService = (*IndexBuilder)(nil)

// DefaultBatchSize is the number of subjects sent per embedding call.
const DefaultBatchSize = 16

// IndexBuilder embeds a corpus into a domain.Index and persists it.
type IndexBuilder struct {
	embedder  driven.EmbeddingService
	source    driven.RecordSource
	store     driven.IndexStore
	batchSize int
	now       func() time.Time
}

// NewIndexBuilder creates a builder. source and store are only needed by
// Rebuild and may be nil when the caller only uses Build.
func NewIndexBuilder(
	embedder driven.EmbeddingService,
	source driven.RecordSource,
	store driven.IndexStore,
	batchSize int,
) *IndexBuilder {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &IndexBuilder{
		embedder:  embedder,
		source:    source,
		store:     store,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Build validates every record, embeds the Q+A subjects in batches and
// returns the index with row i holding record i.
// A single invalid record fails the whole build before anything is embedded.
func (b *IndexBuilder) Build(ctx context.Context, records []domain.Record) (*domain.Index, error) {
	if b.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Index Build")
	logger.Debug("Records: %d, batch size: %d, model: %s", len(records), b.batchSize, b.embedder.ModelName())

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	vectors := make([][]float32, 0, len(records))
	dim := 0
	for start := 0; start < len(records); start += b.batchSize {
		end := start + b.batchSize
		if end > len(records) {
			end = len(records)
		}

		subjects := make([]string, end-start)
		for i := start; i < end; i++ {
			subjects[i-start] = records[i].EmbeddingSubject()
		}

		batch, err := b.embedder.EmbedBatch(ctx, subjects)
		if err != nil {
			return nil, fmt.Errorf("%w: rows %d-%d: %w", domain.ErrEmbedding, start, end-1, err)
		}
		if len(batch) != len(subjects) {
			return nil, fmt.Errorf("%w: rows %d-%d: got %d vectors for %d subjects",
				domain.ErrEmbedding, start, end-1, len(batch), len(subjects))
		}

		for j, raw := range batch {
			row := start + j
			vec, err := domain.Normalize(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d (id %q): %w", row, records[row].ID, err)
			}
			if row == 0 {
				dim = len(vec)
			} else if len(vec) != dim {
				return nil, fmt.Errorf("%w: row %d has %d dimensions, expected %d",
					domain.ErrDimensionMismatch, row, len(vec), dim)
			}
			vectors = append(vectors, vec)
		}
		logger.Debug("Embedded rows %d-%d", start, end-1)
	}

	return domain.NewIndex(vectors, records)
}

// Rebuild reads the corpus, builds the index and saves it with a fresh manifest.
func (b *IndexBuilder) Rebuild(ctx context.Context) (*domain.BuildReport, error) {
	if b.source == nil {
		return nil, fmt.Errorf("%w: no record source configured", domain.ErrInvalidInput)
	}
	if b.store == nil {
		return nil, fmt.Errorf("%w: no index store configured", domain.ErrInvalidInput)
	}

	started := b.now()

	records, err := b.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", b.source.Location(), err)
	}

	idx, err := b.Build(ctx, records)
	if err != nil {
		return nil, err
	}

	manifest := domain.IndexManifest{
		BuildID:    uuid.New().String(),
		Model:      b.embedder.ModelName(),
		Dimensions: idx.Dimensions(),
		Rows:       idx.Len(),
		CorpusPath: b.source.Location(),
		CreatedAt:  b.now().UTC(),
	}
	if err := b.store.Save(ctx, idx, manifest); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	report := &domain.BuildReport{
		BuildID:    manifest.BuildID,
		Rows:       manifest.Rows,
		Dimensions: manifest.Dimensions,
		Model:      manifest.Model,
		Location:   b.store.Location(),
		Duration:   b.now().Sub(started),
	}
	logger.Info("Indexed %d FAQs -> %s", report.Rows, report.Location)

	return report, nil
}
