// Package memory provides in-memory implementations of the config and
// index store ports. They back tests and one-shot commands that build
// and query an index without touching disk.
package memory
