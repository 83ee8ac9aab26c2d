// Package sqlite stores a built index as a single SQLite database file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. The database holds three tables:
//
//   - records: one row per FAQ record, keyed by row number
//   - vectors: the unit-normalised embedding of each row as a little-endian float32 blob
//   - manifest: build id, model, dimensions, row count, corpus path and build time
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory and embedded at compile time.
//
// # Replacement
//
// Save writes a complete database under a temporary name next to index.db
// and renames it into place, so a reader never sees a half-written index.
package sqlite
