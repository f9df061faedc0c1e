package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []domain.Envelope
	err  error
}

func (r *recorder) Send(ctx context.Context, msg domain.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) received() []domain.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Envelope(nil), r.msgs...)
}

// replay applies every received update in order.
func (r *recorder) replay(t *testing.T) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	for _, msg := range r.received() {
		var err error
		snap, err = domain.ApplyUpdate(snap, msg.Data)
		require.NoError(t, err)
	}
	return snap
}

func TestRegister_SendsBootstrap(t *testing.T) {
	ctx := context.Background()
	r := New()

	_, err := r.Publish(ctx, domain.FullUpdate(map[string]any{"tagName": "div", "children": []any{"hello"}}))
	require.NoError(t, err)

	rec := &recorder{}
	require.NoError(t, r.Register(ctx, "A", rec))

	msgs := rec.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.ViewID("A"), msgs[0].ViewID)
	assert.Equal(t, domain.UpdateType, msgs[0].Data.Type)
	assert.Equal(t, "", msgs[0].Data.Path)
	assert.Equal(t, map[string]any{"tagName": "div", "children": []any{"hello"}}, msgs[0].Data.Model)
	assert.Equal(t, domain.ViewReady, r.Status("A"))
}

func TestRegister_EmptySnapshot(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, New().Register(context.Background(), "A", rec))

	msgs := rec.received()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Data.IsFull())
	assert.Nil(t, msgs[0].Data.Model)
}

func TestPublish_OrderPreserved(t *testing.T) {
	ctx := context.Background()
	r := New()
	rec := &recorder{}
	require.NoError(t, r.Register(ctx, "A", rec))

	_, err := r.Publish(ctx, domain.FullUpdate(map[string]any{"children": []any{"0"}}))
	require.NoError(t, err)
	for i := 1; i <= 20; i++ {
		_, err := r.Publish(ctx, domain.NewUpdate("/children/0", fmt.Sprint(i)))
		require.NoError(t, err)
	}

	msgs := rec.received()
	require.Len(t, msgs, 22)
	for i := 2; i < len(msgs); i++ {
		assert.Equal(t, fmt.Sprint(i-1), msgs[i].Data.Model)
	}
	assert.Equal(t, r.Snapshot().Model, rec.replay(t).Model)
	assert.Equal(t, uint64(21), r.Snapshot().Revision)
}

func TestPublish_InvalidPathIsNotSent(t *testing.T) {
	ctx := context.Background()
	r := New()
	rec := &recorder{}
	require.NoError(t, r.Register(ctx, "A", rec))

	before := r.Snapshot()
	_, err := r.Publish(ctx, domain.NewUpdate("/missing", 1))
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
	assert.Equal(t, before, r.Snapshot())
	assert.Len(t, rec.received(), 1)
}

func TestUnregister_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := New()
	rec := &recorder{}
	require.NoError(t, r.Register(ctx, "A", rec))

	r.Unregister(ctx, "A")
	r.Unregister(ctx, "A")
	r.Unregister(ctx, "never-seen")

	assert.Equal(t, domain.ViewRemoved, r.Status("A"))
	assert.Equal(t, domain.ViewUnregistered, r.Status("never-seen"))
	assert.Empty(t, r.Views())

	_, err := r.Publish(ctx, domain.FullUpdate("x"))
	require.NoError(t, err)
	assert.Len(t, rec.received(), 1, "removed view must not receive updates")
}

func TestRegister_AfterRemoval(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.Register(ctx, "A", &recorder{}))
	r.Unregister(ctx, "A")

	rec := &recorder{}
	require.NoError(t, r.Register(ctx, "A", rec))
	assert.Equal(t, domain.ViewReady, r.Status("A"))
	assert.Len(t, rec.received(), 1)
}

func TestRegister_ReplacesChannel(t *testing.T) {
	ctx := context.Background()
	r := New()
	first, second := &recorder{}, &recorder{}
	require.NoError(t, r.Register(ctx, "A", first))
	require.NoError(t, r.Register(ctx, "A", second))

	_, err := r.Publish(ctx, domain.FullUpdate("x"))
	require.NoError(t, err)

	assert.Len(t, first.received(), 1)
	assert.Len(t, second.received(), 2)
	assert.Equal(t, []domain.ViewID{"A"}, r.Views())
}

func TestPublish_SendFailureIsolated(t *testing.T) {
	ctx := context.Background()
	var failures []domain.ViewID
	r := New(WithHooks(domain.LifecycleHooks{
		OnSendError: func(ctx context.Context, e *domain.ViewEvent) {
			failures = append(failures, e.ViewID)
		},
	}))

	good, bad := &recorder{}, &recorder{}
	require.NoError(t, r.Register(ctx, "A", good))
	require.NoError(t, r.Register(ctx, "B", bad))
	bad.err = errors.New("socket gone")

	_, err := r.Publish(ctx, domain.FullUpdate("x"))
	require.NoError(t, err, "send failures do not fail the publish")

	assert.Len(t, good.received(), 2)
	assert.Equal(t, []domain.ViewID{"B"}, failures)
	assert.Equal(t, domain.ViewReady, r.Status("B"), "failing views stay registered")

	err = r.Broadcast(ctx, domain.FullUpdate("y"))
	assert.ErrorContains(t, err, "socket gone")
	assert.Len(t, good.received(), 3)
}

func TestRegister_BootstrapFailure(t *testing.T) {
	rec := &recorder{err: errors.New("closed")}
	r := New()
	err := r.Register(context.Background(), "A", rec)
	assert.ErrorContains(t, err, "closed")
	assert.Equal(t, domain.ViewReady, r.Status("A"))

	assert.Error(t, r.Register(context.Background(), "B", nil))
}

func TestClose_StopsSends(t *testing.T) {
	ctx := context.Background()
	removed := 0
	r := New(WithHooks(domain.LifecycleHooks{
		OnViewRemoved: func(context.Context, *domain.ViewEvent) { removed++ },
	}))
	rec := &recorder{}
	require.NoError(t, r.Register(ctx, "A", rec))

	r.Close(ctx)
	r.Close(ctx)

	_, err := r.Publish(ctx, domain.FullUpdate("x"))
	assert.ErrorIs(t, err, ErrRegistryClosed)
	assert.ErrorIs(t, r.Broadcast(ctx, domain.FullUpdate("x")), ErrRegistryClosed)
	assert.ErrorIs(t, r.Register(ctx, "B", &recorder{}), ErrRegistryClosed)
	assert.Len(t, rec.received(), 1)
	assert.Equal(t, 1, removed)
}

func TestWithSnapshot(t *testing.T) {
	r := New(WithSnapshot(domain.Snapshot{Model: "restored", Revision: 9}))
	rec := &recorder{}
	require.NoError(t, r.Register(context.Background(), "A", rec))
	assert.Equal(t, "restored", rec.received()[0].Data.Model)

	snap, err := r.Publish(context.Background(), domain.FullUpdate("next"))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), snap.Revision)
}

// Views joining while updates are published must each end up with the final model,
// receiving every update after their bootstrap exactly once.
func TestLateJoin_Concurrent(t *testing.T) {
	ctx := context.Background()
	r := New()
	_, err := r.Publish(ctx, domain.FullUpdate(map[string]any{"count": 0.0}))
	require.NoError(t, err)

	const views = 30
	recs := make([]*recorder, views)
	for i := range recs {
		recs[i] = &recorder{}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 200; i++ {
			_, err := r.Publish(ctx, domain.NewUpdate("/count", float64(i)))
			assert.NoError(t, err)
		}
	}()
	for i, rec := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Register(ctx, domain.ViewID(fmt.Sprintf("view-%02d", i)), rec))
		}()
	}
	wg.Wait()

	final := r.Snapshot()
	assert.Equal(t, map[string]any{"count": 200.0}, final.Model)
	for _, rec := range recs {
		msgs := rec.received()
		require.NotEmpty(t, msgs)
		assert.True(t, msgs[0].Data.IsFull(), "first message is the bootstrap")
		for _, m := range msgs[1:] {
			assert.False(t, m.Data.IsFull())
		}
		assert.Equal(t, final.Model, rec.replay(t).Model)
	}
}
