// Package file stores a built index as plain files in a directory.
//
// Each save writes a new generation directory and then switches the
// CURRENT pointer to it:
//
//	<dir>/CURRENT                 name of the active generation
//	<dir>/<gen>/vectors.bin       dim u32, rows u32, rows*dim float32 (little-endian, row-major)
//	<dir>/<gen>/metadata.jsonl    one record per line, row order
//	<dir>/<gen>/manifest.json     build id, model, dimensions, rows, corpus path, time
//
// Readers that loaded the previous generation keep working from memory;
// a crash mid-save leaves CURRENT pointing at the old generation.
package file
