package file

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// Artifact names.
const (
	CurrentFile  = "CURRENT"
	VectorsFile  = "vectors.bin"
	MetadataFile = "metadata.jsonl"
	ManifestFile = "manifest.json"

	headerSize = 8
	tmpPrefix  = ".tmp-"
)

// IndexStore persists an index under a directory.
type IndexStore struct {
	dir string
}

// NewIndexStore creates a store rooted at dir.
// If dir is empty, defaults to ~/.faqbot/index.
func NewIndexStore(dir string) (*IndexStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".faqbot", "index")
	}
	return &IndexStore{dir: dir}, nil
}

// Location returns the index directory.
func (s *IndexStore) Location() string {
	return s.dir
}

// Save writes a new generation and makes it current.
func (s *IndexStore) Save(ctx context.Context, index *domain.Index, manifest domain.IndexManifest) error {
	if index == nil {
		return fmt.Errorf("%w: index is nil", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	manifest.Rows = index.Len()
	manifest.Dimensions = index.Dimensions()

	gen := uuid.NewString()
	staging := filepath.Join(s.dir, tmpPrefix+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := writeVectors(filepath.Join(staging, VectorsFile), index); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeMetadata(filepath.Join(staging, MetadataFile), index.Records()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(staging, ManifestFile), manifest); err != nil {
		return err
	}

	if err := os.Rename(staging, filepath.Join(s.dir, gen)); err != nil {
		return fmt.Errorf("publishing generation %s: %w", gen, err)
	}
	committed = true

	if err := writeFileAtomic(filepath.Join(s.dir, CurrentFile), []byte(gen+"\n")); err != nil {
		return fmt.Errorf("updating %s: %w", CurrentFile, err)
	}
	logger.Debug("Index generation %s is current (%d rows)", gen, manifest.Rows)

	s.prune(gen)
	return nil
}

// Load reads and validates the current generation.
func (s *IndexStore) Load(ctx context.Context) (*domain.Index, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, CurrentFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no index at %s", domain.ErrIndexNotBuilt, s.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrIndexLoad, CurrentFile, err)
	}
	gen := strings.TrimSpace(string(raw))
	if gen == "" || strings.ContainsAny(gen, `/\`) || gen == "." || gen == ".." {
		return nil, fmt.Errorf("%w: invalid generation name %q", domain.ErrIndexLoad, gen)
	}
	genDir := filepath.Join(s.dir, gen)

	var manifest domain.IndexManifest
	if err := readJSON(filepath.Join(genDir, ManifestFile), &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim, vectors, err := readVectors(filepath.Join(genDir, VectorsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}
	records, err := readMetadata(filepath.Join(genDir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}

	if len(vectors) != len(records) || len(records) != manifest.Rows {
		return nil, fmt.Errorf("%w: %d vectors, %d metadata rows, manifest says %d",
			domain.ErrIndexLoad, len(vectors), len(records), manifest.Rows)
	}
	if len(vectors) > 0 && dim != manifest.Dimensions {
		return nil, fmt.Errorf("%w: vectors have %d dimensions, manifest says %d",
			domain.ErrIndexLoad, dim, manifest.Dimensions)
	}

	idx, err := domain.NewIndex(vectors, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}
	if err := idx.CheckNormalised(domain.UnitNormTolerance); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}

	logger.Debug("Loaded index generation %s: %d rows x %d dims", gen, idx.Len(), idx.Dimensions())
	return idx.WithManifest(manifest), nil
}

// prune removes generations other than keep. Failures are logged only.
func (s *IndexStore) prune(keep string) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logger.Warn("Listing %s for cleanup: %v", s.dir, err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == keep || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, e.Name(), ManifestFile)); err != nil {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			logger.Warn("Removing old generation %s: %v", e.Name(), err)
		}
	}
}

func writeVectors(path string, index *domain.Index) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", VectorsFile, err)
	}
	w := bufio.NewWriter(f)

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(index.Dimensions()))
	binary.LittleEndian.PutUint32(header[4:8], uint32(index.Len()))
	if _, err := w.Write(header[:]); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", VectorsFile, err)
	}

	var buf [4]byte
	for i := 0; i < index.Len(); i++ {
		for _, x := range index.Vector(i) {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
			if _, err := w.Write(buf[:]); err != nil {
				f.Close()
				return fmt.Errorf("writing %s: %w", VectorsFile, err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", VectorsFile, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", VectorsFile, err)
	}
	return f.Close()
}

func readVectors(path string) (int, [][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", VectorsFile, err)
	}
	if len(data) < headerSize {
		return 0, nil, fmt.Errorf("%s: truncated header (%d bytes)", VectorsFile, len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	rows := int(binary.LittleEndian.Uint32(data[4:8]))

	want := int64(headerSize) + int64(dim)*int64(rows)*4
	if int64(len(data)) != want {
		return 0, nil, fmt.Errorf("%s: %d bytes, expected %d for %d rows x %d dims",
			VectorsFile, len(data), want, rows, dim)
	}

	vectors := make([][]float32, rows)
	off := headerSize
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = v
	}
	return dim, vectors, nil
}

func writeMetadata(path string, records []domain.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", MetadataFile, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", MetadataFile, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", MetadataFile, err)
	}
	return f.Close()
}

func readMetadata(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", MetadataFile, err)
	}
	defer f.Close()

	records := []domain.Record{}
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		var r domain.Record
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", MetadataFile, len(records), err)
		}
		records = append(records, r)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeFileAtomic writes to a temporary sibling and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), tmpPrefix+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
