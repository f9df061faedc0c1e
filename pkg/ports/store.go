package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// SnapshotStore defines the interface for mirroring widget snapshots.
// This allows other processes (dashboards, MCP clients, late HTTP readers) to inspect a
// widget's model without joining it as a view.
type SnapshotStore interface {
	// Save persists the snapshot for a given widget ID.
	Save(ctx context.Context, widgetID string, snap domain.Snapshot) error

	// Load retrieves the snapshot for a given widget ID.
	// Returns domain.ErrSnapshotNotFound if the widget has no snapshot.
	Load(ctx context.Context, widgetID string) (domain.Snapshot, error)

	// Delete removes the snapshot for a given widget ID.
	Delete(ctx context.Context, widgetID string) error

	// List returns the IDs of all stored widgets.
	List(ctx context.Context) ([]string, error)
}
