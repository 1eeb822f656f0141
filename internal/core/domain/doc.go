// Package domain defines the core retrieval entities for quizhunter.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Item: One exam question (or tabular record) and its assembled text
//   - Corpus: The ordered, immutable item collection; position is the item index
//   - SearchOptions / SearchResult: Query parameters and hydrated hits
//   - Snapshot: The persisted state of a built engine
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
