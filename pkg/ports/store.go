package ports

import (
	"context"

	"github.com/aretw0/sticky/pkg/domain"
)

// SnapshotStore defines the interface for persisting router snapshots.
// A snapshot holds the active path and the parked instances, so a session can
// stop and later resume with its sticky states intact.
type SnapshotStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
