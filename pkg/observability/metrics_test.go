package observability_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
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
		}, fmt.Sprint(count))
	}
}

func TestMetrics_Widget(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	ctx := context.Background()

	w, err := canopy.Mount(counter(), canopy.WithHooks(m.Hooks()))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.Snapshot().Revision >= 1 }, 2*time.Second, time.Millisecond)

	ok := ports.ChannelFunc(func(ctx context.Context, msg domain.Envelope) error { return nil })
	bad := ports.ChannelFunc(func(ctx context.Context, msg domain.Envelope) error { return errors.New("gone") })
	require.NoError(t, w.Handle(ctx, map[string]any{"type": "client-ready", "viewId": "a"}, ok))
	assert.Error(t, w.Handle(ctx, map[string]any{"type": "client-ready", "viewId": "b"}, bad))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Views))

	require.NoError(t, w.Handle(ctx, map[string]any{
		"type": "dom-event", "viewId": "a", "data": map[string]any{"target": "h0"},
	}, nil))
	assert.ErrorIs(t, w.Handle(ctx, map[string]any{"type": "dom-event", "viewId": "a"}, nil), domain.ErrMalformedMessage)

	require.Eventually(t, func() bool { return testutil.ToFloat64(m.Renders) == 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Messages.WithLabelValues("scheduled")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Messages.WithLabelValues("malformed")))
	// One failed bootstrap, one failed broadcast.
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SendErrors))

	require.NoError(t, w.Handle(ctx, map[string]any{"type": "client-removed", "viewId": "a"}, nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Views))

	require.NoError(t, w.Close())
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Views), "closing removes the remaining views")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ViewEvents.WithLabelValues("removed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LoopExits.WithLabelValues("ok")))

	n, err := testutil.GatherAndCount(reg, "canopy_renders_total", "canopy_views_ready")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_LoopError(t *testing.T) {
	m := observability.NewMetrics(nil)
	hooks := m.Hooks()

	hooks.LoopExit(context.Background(), &domain.LoopEvent{Err: errors.New("render failed")})
	hooks.LoopExit(context.Background(), &domain.LoopEvent{Err: context.Canceled})
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LoopExits.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LoopExits.WithLabelValues("ok")))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := domain.ChainHooks(observability.LogHooks(logger), observability.NewMetrics(nil).Hooks())
	ctx := context.Background()

	hooks.ViewReady(ctx, &domain.ViewEvent{ViewID: "v1"})
	hooks.SendError(ctx, &domain.ViewEvent{ViewID: "v1", Err: errors.New("full")})
	hooks.Render(ctx, &domain.RenderEvent{Path: "/a", Revision: 3, Recipients: 1})

	out := buf.String()
	assert.Contains(t, out, "msg=view_ready")
	assert.Contains(t, out, "view_id=v1")
	assert.Contains(t, out, "err=full")
	assert.Contains(t, out, "revision=3")
	assert.Equal(t, 3, strings.Count(out, "component=lifecycle"))
}
