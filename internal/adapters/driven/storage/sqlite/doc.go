// Package sqlite provides a SQLite-based implementation of the snapshot store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A snapshot is stored across three tables:
//
//   - snapshots: one header row with build id, timestamps and index parameters
//   - snapshot_items: one row per item, in index order, with its doc length,
//     graph level, float32 vector BLOB and encoded neighbour lists
//   - snapshot_postings: one row per term with a varint-encoded postings list
//
// Float parameters are written as shortest round-trip decimal text so a restored
// engine scores exactly like the one that was saved.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.quizhunter/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. Save replaces the snapshot inside a single
// transaction, so readers see either the old or the new snapshot.
package sqlite
