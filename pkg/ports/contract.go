package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	widgetID := "contract-test-widget-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.Snapshot{
			Model: map[string]any{
				"tagName":  "div",
				"children": []any{"hello"},
			},
			Revision: 7,
		}

		err := store.Save(ctx, widgetID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, widgetID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, uint64(7), loaded.Revision)
		// Stores that serialise to JSON return generic maps and slices, which is
		// exactly the shape used here.
		assert.Equal(t, snap.Model, loaded.Model)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, widgetID, domain.Snapshot{Model: "v1", Revision: 1}))
		require.NoError(t, store.Save(ctx, widgetID, domain.Snapshot{Model: "v2", Revision: 2}))

		loaded, err := store.Load(ctx, widgetID)
		require.NoError(t, err)
		assert.Equal(t, "v2", loaded.Model)
		assert.Equal(t, uint64(2), loaded.Revision)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+widgetID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, widgetID, domain.Snapshot{Model: "x", Revision: 1})
		require.NoError(t, err)

		err = store.Delete(ctx, widgetID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, widgetID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		// Deleting twice is not an error.
		assert.NoError(t, store.Delete(ctx, widgetID))
	})

	t.Run("List", func(t *testing.T) {
		id1 := widgetID + "-1"
		id2 := widgetID + "-2"
		_ = store.Save(ctx, id1, domain.Snapshot{Model: "a", Revision: 1})
		_ = store.Save(ctx, id2, domain.Snapshot{Model: "b", Revision: 1})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		widgets, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, widgets, id1)
		assert.Contains(t, widgets, id2)
	})
}
