// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - Engine: builds both indexes over a corpus and answers hybrid queries
//   - Fuse: blends normalised BM25 and vector scores into one ranking
//   - SwappableRetrieval: replaces a serving engine atomically after a rebuild
//   - SettingsService: reads and validates application settings
//
// Services are pure Go with no CGO or external dependencies beyond
// golang.org/x/sync and google/uuid.
package services
