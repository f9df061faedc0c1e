package canopy_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// rootLayout renders whatever model is pushed to it as a full replacement.
type rootLayout struct {
	next chan any

	mu     sync.Mutex
	events []domain.LayoutEvent
	exits  int
}

func newRootLayout() *rootLayout {
	return &rootLayout{next: make(chan any, 8)}
}

func (l *rootLayout) Enter(ctx context.Context) error { return nil }

func (l *rootLayout) Render(ctx context.Context) (domain.LayoutUpdate, error) {
	select {
	case <-ctx.Done():
		return domain.LayoutUpdate{}, ctx.Err()
	case m := <-l.next:
		return domain.FullUpdate(m), nil
	}
}

func (l *rootLayout) Deliver(ctx context.Context, ev domain.LayoutEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *rootLayout) Exit(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exits++
	return nil
}

func (l *rootLayout) exitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exits
}

// view is a buffered ports.Channel.
type view struct {
	mu   sync.Mutex
	msgs []domain.Envelope
	in   chan domain.Envelope
}

func newView() *view {
	return &view{in: make(chan domain.Envelope, 32)}
}

func (v *view) Send(ctx context.Context, msg domain.Envelope) error {
	v.mu.Lock()
	v.msgs = append(v.msgs, msg)
	v.mu.Unlock()
	v.in <- msg
	return nil
}

func (v *view) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.msgs)
}

func (v *view) next(t *testing.T) domain.Envelope {
	t.Helper()
	select {
	case msg := <-v.in:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return domain.Envelope{}
	}
}

func ready(id string) map[string]any {
	return map[string]any{"type": "client-ready", "viewId": id}
}

func removed(id string) map[string]any {
	return map[string]any{"type": "client-removed", "viewId": id}
}

func click(id, target string, data ...any) map[string]any {
	return map[string]any{
		"type":   "dom-event",
		"viewId": id,
		"data":   map[string]any{"target": target, "data": data},
	}
}
