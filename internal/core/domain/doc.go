// Package domain defines the core business entities for faqbot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: One question/answer fact from the corpus
//   - Index: Unit-normalised vectors with row-aligned records
//   - SearchHit: A transient (row, similarity) pair
//   - ContextItem: A formatted context string handed to generation
//   - RetrievalResult: The outcome of one query, matched or fallback
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
