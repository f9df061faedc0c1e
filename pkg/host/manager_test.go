package host_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() layout.Component {
	count := 0
	return func(r *layout.Renderer) any {
		return layout.H("button", layout.Attrs{
			"onClick": r.Handler(func(ctx context.Context, data []any) error {
				count++
				return nil
			}),
		}, fmt.Sprintf("%d", count))
	}
}

type inbox struct {
	mu   sync.Mutex
	msgs []domain.Envelope
}

func (b *inbox) Send(ctx context.Context, msg domain.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *inbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

func TestManager_MountGetList(t *testing.T) {
	m := host.NewManager()
	defer m.Close()
	ctx := context.Background()

	b, err := m.MountComponent(ctx, counter(), canopy.WithID("b"))
	require.NoError(t, err)
	a, err := m.MountComponent(ctx, counter(), canopy.WithID("a"))
	require.NoError(t, err)

	got, err := m.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	assert.Equal(t, []string{"a", "b"}, m.List())
	assert.Same(t, b, m.Widgets()[1])

	anon, err := m.MountComponent(ctx, counter())
	require.NoError(t, err)
	assert.Len(t, anon.ID(), 36, "generated IDs are UUIDs")
	assert.Contains(t, m.List(), anon.ID())
}

func TestManager_NotFound(t *testing.T) {
	m := host.NewManager()
	defer m.Close()

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, domain.ErrWidgetNotFound)
	assert.ErrorIs(t, m.Unmount("missing"), domain.ErrWidgetNotFound)
	assert.ErrorIs(t, m.Route(context.Background(), "missing", map[string]any{"type": "client-ready"}, nil), domain.ErrWidgetNotFound)
}

func TestManager_DuplicateID(t *testing.T) {
	m := host.NewManager()
	defer m.Close()
	ctx := context.Background()

	_, err := m.MountComponent(ctx, counter(), canopy.WithID("w"))
	require.NoError(t, err)
	_, err = m.MountComponent(ctx, counter(), canopy.WithID("w"))
	assert.ErrorIs(t, err, host.ErrWidgetExists)
	assert.Equal(t, []string{"w"}, m.List())
}

func TestManager_Route(t *testing.T) {
	m := host.NewManager()
	defer m.Close()
	ctx := context.Background()

	w, err := m.MountComponent(ctx, counter(), canopy.WithID("w"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.Snapshot().Revision >= 1 }, 2*time.Second, time.Millisecond)

	view := &inbox{}
	require.NoError(t, m.Route(ctx, "w", map[string]any{"type": "client-ready", "viewId": "v1"}, view))
	assert.Equal(t, 1, view.len())

	require.NoError(t, m.Route(ctx, "w", map[string]any{
		"type":   "dom-event",
		"viewId": "v1",
		"data":   map[string]any{"target": "h0", "data": []any{}},
	}, nil))
	require.Eventually(t, func() bool { return view.len() == 2 }, 2*time.Second, time.Millisecond)
}

func TestManager_Unmount(t *testing.T) {
	m := host.NewManager()
	defer m.Close()

	w, err := m.MountComponent(context.Background(), counter(), canopy.WithID("w"))
	require.NoError(t, err)

	require.NoError(t, m.Unmount("w"))
	assert.Empty(t, m.List())
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("widget loop still running after unmount")
	}
}

func TestManager_SharedStore(t *testing.T) {
	store := memory.NewStore()
	m := host.NewManager(host.WithStore(store), host.WithImportSourceBaseURL("http://localhost:9000/web"))
	ctx := context.Background()

	w, err := m.MountComponent(ctx, counter(), canopy.WithID("w"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/web", w.ImportSourceBaseURL())

	var _ ports.SnapshotStore = store
	require.Eventually(t, func() bool {
		snap, err := store.Load(ctx, "w")
		return err == nil && snap.Revision >= 1
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, m.Close())
	_, err = m.MountComponent(ctx, counter())
	assert.Error(t, err, "mounting after Close fails")
}

func TestManager_ConcurrentMount(t *testing.T) {
	m := host.NewManager()
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.MountComponent(context.Background(), counter(), canopy.WithID(fmt.Sprintf("w%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.List(), 10)
}
