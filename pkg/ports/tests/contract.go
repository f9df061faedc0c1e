package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// LayoutContractTest is a reusable test suite that verifies if an adapter complies with ports.Layout.
// newLayout must return a fresh, not yet entered Layout whose tree renders without any event.
func LayoutContractTest(t *testing.T, newLayout func() ports.Layout) {
	t.Helper()

	// 1. The first render after Enter replaces the whole model.
	t.Run("FirstRender_IsFull", func(t *testing.T) {
		l := newLayout()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := l.Enter(ctx); err != nil {
			t.Fatalf("Enter: %v", err)
		}
		defer l.Exit(context.Background())

		update, err := l.Render(ctx)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if update.Type != domain.UpdateType {
			t.Errorf("update type = %q, want %q", update.Type, domain.UpdateType)
		}
		if !update.IsFull() {
			t.Errorf("first update path = %q, want full replacement", update.Path)
		}
	})

	// 2. Render blocks without changes and honours cancellation.
	t.Run("Render_Cancellation", func(t *testing.T) {
		l := newLayout()
		if err := l.Enter(context.Background()); err != nil {
			t.Fatalf("Enter: %v", err)
		}
		defer l.Exit(context.Background())

		if _, err := l.Render(context.Background()); err != nil {
			t.Fatalf("Render: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, err := l.Render(ctx); err == nil {
			t.Error("expected an error from Render after cancellation, got nil")
		}
	})

	// 3. Events for unknown targets do not break rendering.
	t.Run("Deliver_UnknownTarget", func(t *testing.T) {
		l := newLayout()
		if err := l.Enter(context.Background()); err != nil {
			t.Fatalf("Enter: %v", err)
		}
		defer l.Exit(context.Background())

		if _, err := l.Render(context.Background()); err != nil {
			t.Fatalf("Render: %v", err)
		}
		_ = l.Deliver(context.Background(), domain.LayoutEvent{ViewID: "A", Target: "does-not-exist"})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, err := l.Render(ctx); err == nil {
			t.Error("unknown target must not produce an update")
		}
	})

	// 4. Exit can be called after rendering and only releases once.
	t.Run("Exit_Idempotent", func(t *testing.T) {
		l := newLayout()
		if err := l.Enter(context.Background()); err != nil {
			t.Fatalf("Enter: %v", err)
		}
		if err := l.Exit(context.Background()); err != nil {
			t.Fatalf("Exit: %v", err)
		}
		if err := l.Exit(context.Background()); err != nil {
			t.Errorf("second Exit: %v", err)
		}
	})
}
