// Package flat provides an exhaustive in-memory vector index.
// It implements the driven.VectorIndex interface.
//
// Every query is scored against every row with a dot product. Rows are
// expected to be unit-normalised, so the dot product is the cosine
// similarity.
package flat
