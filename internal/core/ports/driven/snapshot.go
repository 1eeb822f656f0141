package driven

import (
	"context"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// SnapshotStore persists the most recent engine snapshot.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Load returns the stored snapshot.
	// Returns domain.ErrSnapshotNotFound if nothing has been saved.
	Load(ctx context.Context) (*domain.Snapshot, error)
}
