package file

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/faqbot/internal/core/domain"
)

func testIndex(t *testing.T) *domain.Index {
	t.Helper()
	idx, err := domain.NewIndex(
		[][]float32{{1, 0, 0}, {0, 0.6, 0.8}},
		[]domain.Record{
			{ID: "1", Question: "How do I reset my password?", Answer: "Use the link.", SourceLocator: "https://example.com/reset"},
			{ID: "2", Question: "Refunds?", Answer: "Within 30 days <always>."},
		},
	)
	require.NoError(t, err)
	return idx
}

func testManifest() domain.IndexManifest {
	return domain.IndexManifest{
		BuildID:    "build-1",
		Model:      "fnv-bow-3",
		CorpusPath: "faq_pairs.jsonl",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func currentDir(t *testing.T, dir string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, CurrentFile))
	require.NoError(t, err)
	return filepath.Join(dir, strings.TrimSpace(string(raw)))
}

func TestNewIndexStore_DefaultDir(t *testing.T) {
	store, err := NewIndexStore("")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(store.Location(), filepath.Join(".faqbot", "index")))
}

func TestLoad_NotBuilt(t *testing.T) {
	store, err := NewIndexStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, err := NewIndexStore(filepath.Join(t.TempDir(), "idx"))
	require.NoError(t, err)

	idx := testIndex(t)
	require.NoError(t, store.Save(context.Background(), idx, testManifest()))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, idx.Len(), loaded.Len())
	assert.Equal(t, 3, loaded.Dimensions())
	assert.Equal(t, idx.Records(), loaded.Records())
	for i := 0; i < idx.Len(); i++ {
		assert.Equal(t, idx.Vector(i), loaded.Vector(i))
	}

	m := loaded.Manifest()
	assert.Equal(t, "build-1", m.BuildID)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 3, m.Dimensions)
	assert.True(t, m.CreatedAt.Equal(testManifest().CreatedAt))
}

func TestSave_Layout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewIndexStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), testIndex(t), testManifest()))

	gen := currentDir(t, dir)
	for _, name := range []string{VectorsFile, MetadataFile, ManifestFile} {
		assert.FileExists(t, filepath.Join(gen, name))
	}

	data, err := os.ReadFile(filepath.Join(gen, VectorsFile))
	require.NoError(t, err)
	assert.Len(t, data, headerSize+2*3*4)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, float32(0.6), math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+16:])))

	meta, err := os.ReadFile(filepath.Join(gen, MetadataFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(meta)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "<always>")
}

func TestSave_ReplacesPreviousGeneration(t *testing.T) {
	dir := t.TempDir()
	store, err := NewIndexStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testIndex(t), testManifest()))
	first := currentDir(t, dir)

	smaller, err := domain.NewIndex([][]float32{{0, 1}}, []domain.Record{{ID: "9", Question: "q", Answer: "a"}})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), smaller, domain.IndexManifest{BuildID: "build-2"}))
	second := currentDir(t, dir)

	assert.NotEqual(t, first, second)
	assert.NoDirExists(t, first)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, "build-2", loaded.Manifest().BuildID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), tmpPrefix), "leftover %s", e.Name())
	}
}

func TestSaveLoad_EmptyIndex(t *testing.T) {
	store, err := NewIndexStore(t.TempDir())
	require.NoError(t, err)

	empty, err := domain.NewIndex(nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), empty, domain.IndexManifest{}))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, loaded.Len())
	assert.Zero(t, loaded.Dimensions())
}

func TestSave_Invalid(t *testing.T) {
	store, err := NewIndexStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(context.Background(), nil, domain.IndexManifest{}), domain.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Save(ctx, testIndex(t), testManifest()), context.Canceled)
}

func TestLoad_Corruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, gen string)
		wantMsg string
	}{
		{
			name: "missing vectors",
			corrupt: func(t *testing.T, gen string) {
				require.NoError(t, os.Remove(filepath.Join(gen, VectorsFile)))
			},
			wantMsg: VectorsFile,
		},
		{
			name: "truncated vectors",
			corrupt: func(t *testing.T, gen string) {
				path := filepath.Join(gen, VectorsFile)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))
			},
			wantMsg: "expected",
		},
		{
			name: "metadata row missing",
			corrupt: func(t *testing.T, gen string) {
				path := filepath.Join(gen, MetadataFile)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				first := strings.SplitAfter(string(data), "\n")[0]
				require.NoError(t, os.WriteFile(path, []byte(first), 0o644))
			},
			wantMsg: "1 metadata rows",
		},
		{
			name: "bad manifest",
			corrupt: func(t *testing.T, gen string) {
				require.NoError(t, os.WriteFile(filepath.Join(gen, ManifestFile), []byte("{"), 0o644))
			},
			wantMsg: ManifestFile,
		},
		{
			name: "not normalised",
			corrupt: func(t *testing.T, gen string) {
				path := filepath.Join(gen, VectorsFile)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				binary.LittleEndian.PutUint32(data[headerSize:], math.Float32bits(2))
				require.NoError(t, os.WriteFile(path, data, 0o644))
			},
			wantMsg: "norm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewIndexStore(dir)
			require.NoError(t, err)
			require.NoError(t, store.Save(context.Background(), testIndex(t), testManifest()))

			tt.corrupt(t, currentDir(t, dir))

			_, err = store.Load(context.Background())
			require.ErrorIs(t, err, domain.ErrIndexLoad)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_BadCurrentPointer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CurrentFile), []byte("../elsewhere\n"), 0o644))

	store, err := NewIndexStore(dir)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}
