package runner_test

import (
	"context"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

type renderResult struct {
	update domain.LayoutUpdate
	err    error
}

// scriptLayout renders whatever is pushed into its renders channel.
type scriptLayout struct {
	renders chan renderResult

	mu      sync.Mutex
	entered int
	exited  int
	events  []domain.LayoutEvent
	exitErr error
}

func newScriptLayout() *scriptLayout {
	return &scriptLayout{renders: make(chan renderResult, 16)}
}

func (l *scriptLayout) Enter(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entered++
	return nil
}

func (l *scriptLayout) Render(ctx context.Context) (domain.LayoutUpdate, error) {
	select {
	case <-ctx.Done():
		return domain.LayoutUpdate{}, ctx.Err()
	case r := <-l.renders:
		return r.update, r.err
	}
}

func (l *scriptLayout) Deliver(ctx context.Context, event domain.LayoutEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *scriptLayout) Exit(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exited++
	return l.exitErr
}

func (l *scriptLayout) push(u domain.LayoutUpdate) {
	l.renders <- renderResult{update: u}
}

func (l *scriptLayout) counts() (entered, exited int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entered, l.exited
}

func (l *scriptLayout) delivered() []domain.LayoutEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.LayoutEvent(nil), l.events...)
}

// inbox is a Channel that forwards envelopes to a buffered Go channel.
type inbox chan domain.Envelope

func (c inbox) Send(ctx context.Context, msg domain.Envelope) error {
	select {
	case c <- msg:
		return nil
	default:
		return context.DeadlineExceeded
	}
}

type memStore struct {
	mu    sync.Mutex
	saved []domain.Snapshot
}

func (s *memStore) Save(ctx context.Context, widgetID string, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snap)
	return nil
}

func (s *memStore) Load(ctx context.Context, widgetID string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *memStore) Delete(ctx context.Context, widgetID string) error { return nil }

func (s *memStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func (s *memStore) revisions() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint64
	for _, snap := range s.saved {
		out = append(out, snap.Revision)
	}
	return out
}
