package domain

import (
	"fmt"
	"time"
)

// Index is an ordered collection of unit-normalised vectors with
// row-aligned records. Row i of the vectors belongs to row i of the
// records. An Index is immutable once constructed and safe for
// concurrent readers.
type Index struct {
	dim      int
	vectors  [][]float32
	records  []Record
	manifest IndexManifest
}

// NewIndex builds an Index from aligned vectors and records.
// It checks row alignment and uniform dimensionality; it does not
// normalise. The slices are copied so later changes by the caller
// cannot leak into the index.
func NewIndex(vectors [][]float32, records []Record) (*Index, error) {
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("%w: %d vectors but %d records",
			ErrInvalidInput, len(vectors), len(records))
	}

	idx := &Index{
		vectors: make([][]float32, len(vectors)),
		records: append([]Record(nil), records...),
	}
	for i, v := range vectors {
		if i == 0 {
			idx.dim = len(v)
		}
		if len(v) != idx.dim {
			return nil, fmt.Errorf("%w: row %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), idx.dim)
		}
		idx.vectors[i] = append([]float32(nil), v...)
	}
	return idx, nil
}

// WithManifest returns a copy of the index carrying the given manifest.
// Vectors and records are shared; both are read-only.
func (x *Index) WithManifest(m IndexManifest) *Index {
	cp := *x
	cp.manifest = m
	return &cp
}

// Len returns the number of rows.
func (x *Index) Len() int {
	return len(x.records)
}

// Dimensions returns the vector dimensionality, or 0 for an empty index.
func (x *Index) Dimensions() int {
	return x.dim
}

// Vector returns the vector at row i. The returned slice must not be modified.
func (x *Index) Vector(i int) []float32 {
	return x.vectors[i]
}

// Record returns the record at row i.
func (x *Index) Record(i int) Record {
	return x.records[i]
}

// Records returns a copy of all records in row order.
func (x *Index) Records() []Record {
	return append([]Record(nil), x.records...)
}

// Manifest returns the build provenance, zero-valued for unsaved indexes.
func (x *Index) Manifest() IndexManifest {
	return x.manifest
}

// CheckNormalised verifies every vector has unit length within tol.
func (x *Index) CheckNormalised(tol float64) error {
	for i, v := range x.vectors {
		if !IsUnit(v, tol) {
			return fmt.Errorf("row %d has norm %.6f", i, Norm(v))
		}
	}
	return nil
}

// IndexManifest records how and when an index was built.
type IndexManifest struct {
	// BuildID uniquely identifies the build run.
	BuildID string `json:"build_id"`

	// Model is the embedding model that produced the vectors.
	Model string `json:"model"`

	// Dimensions is the vector dimensionality.
	Dimensions int `json:"dimensions"`

	// Rows is the number of vectors and records.
	Rows int `json:"rows"`

	// CorpusPath is the record source the index was built from.
	CorpusPath string `json:"corpus_path,omitempty"`

	// CreatedAt is when the build finished.
	CreatedAt time.Time `json:"created_at"`
}

// IndexInfo summarises a loaded index for status output.
type IndexInfo struct {
	Rows       int           `json:"rows"`
	Dimensions int           `json:"dimensions"`
	Manifest   IndexManifest `json:"manifest"`
}

// BuildReport describes a completed build and save.
type BuildReport struct {
	BuildID    string
	Rows       int
	Dimensions int
	Model      string
	Location   string
	Duration   time.Duration
}
