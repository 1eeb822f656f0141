// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to build:
//
//   - EmbeddingService: Generates vector embeddings for the corpus and for queries
//   - LexicalIndexBuilder: Builds or restores the BM25 index
//   - VectorIndexBuilder: Builds or restores the HNSW graph
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SnapshotStore: Persists built indexes. Without it, every start rebuilds and re-embeds.
//   - Tokenizer: Chosen by the lexical builder; defaults to whitespace splitting.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
