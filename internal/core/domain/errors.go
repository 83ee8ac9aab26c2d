package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or index format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer generation is disabled; retrieval still works.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Neither building nor querying an index is possible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrEmbedding indicates the embedding function failed or returned
	// malformed output (empty, zero-length norm, NaN or Inf components).
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch indicates vectors of different lengths met where
	// equal lengths are required: query against index, or two build-time embeddings.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrCorpusValidation indicates a record is missing a required field
	// or could not be decoded. The whole build is aborted.
	ErrCorpusValidation = errors.New("corpus validation failed")

	// Index Errors.

	// ErrIndexLoad indicates persisted index artifacts are missing, corrupt
	// or inconsistent with each other. Serving must not start.
	ErrIndexLoad = errors.New("index load failed")

	// ErrIndexNotBuilt indicates no index has been persisted at the location yet.
	ErrIndexNotBuilt = errors.New("index not built")
)
