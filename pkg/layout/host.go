// Package layout provides a reference Layout: a host that re-renders a Component whenever
// its state may have changed and emits the difference as a patch.
//
// Component state lives in the closure of the Component function. Handlers and Update
// callbacks run on the loop goroutine inside Render, so state is never touched
// concurrently with rendering.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// ErrExited is returned when delivering to a Host that has exited.
var ErrExited = errors.New("layout exited")

// work runs on the loop goroutine and reports whether the tree may have changed.
type work func(ctx context.Context) bool

// Host is a Layout rendering a single root Component.
type Host struct {
	component Component
	logger    *slog.Logger

	mu      sync.Mutex
	pending []work
	dirty   bool
	entered bool
	exited  bool
	onExit  []func(ctx context.Context) error
	sink    domain.InnerWidgets
	wake    chan struct{}

	// Owned by the goroutine calling Render.
	handlers map[string]Handler
	model    any
	rendered bool
	embedded []string

	exitOnce sync.Once
	exitErr  error
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// New creates a Host for component.
func New(component Component, opts ...Option) *Host {
	h := &Host{
		component: component,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		wake:      make(chan struct{}, 1),
		handlers:  make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "layout")
	return h
}

// BindInnerWidgets implements ports.InnerWidgetBinder.
func (h *Host) BindInnerWidgets(sink domain.InnerWidgets) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink = sink
}

// OnExit registers fn to run when the Host exits. Functions run in reverse order.
func (h *Host) OnExit(fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onExit = append(h.onExit, fn)
}

// Update runs fn on the loop goroutine and re-renders afterwards.
// It is the way for other goroutines (timers, subscriptions) to change component state.
func (h *Host) Update(fn func()) error {
	return h.enqueue(func(context.Context) bool {
		fn()
		return true
	})
}

// Enter implements ports.Layout. The first Render emits the whole tree.
func (h *Host) Enter(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.entered {
		return errors.New("layout: already entered")
	}
	h.entered = true
	h.dirty = true
	h.signal()
	return nil
}

// Deliver implements ports.Layout. The event's handler runs during the next Render.
func (h *Host) Deliver(ctx context.Context, event domain.LayoutEvent) error {
	return h.enqueue(func(ctx context.Context) bool {
		handler, ok := h.handlers[event.Target]
		if !ok {
			h.logger.Warn("event for unknown target", "target", event.Target, "view_id", event.ViewID)
			return false
		}
		if err := h.call(ctx, handler, event.Data); err != nil {
			h.logger.Error("event handler failed", "target", event.Target, "err", err)
		}
		return true
	})
}

func (h *Host) call(ctx context.Context, handler Handler, data []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, data)
}

func (h *Host) enqueue(w work) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exited {
		return ErrExited
	}
	h.pending = append(h.pending, w)
	h.signal()
	return nil
}

// signal must be called with h.mu held.
func (h *Host) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Host) take() ([]work, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pending, dirty := h.pending, h.dirty
	h.pending, h.dirty = nil, false
	return pending, dirty
}

// Render implements ports.Layout. It blocks until the tree changes.
func (h *Host) Render(ctx context.Context) (domain.LayoutUpdate, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.LayoutUpdate{}, err
		}

		pending, dirty := h.take()
		for _, w := range pending {
			if w(ctx) {
				dirty = true
			}
		}

		if !dirty {
			select {
			case <-h.wake:
				continue
			case <-ctx.Done():
				return domain.LayoutUpdate{}, ctx.Err()
			}
		}

		model, err := h.renderTree()
		if err != nil {
			return domain.LayoutUpdate{}, err
		}

		if !h.rendered {
			h.rendered = true
			h.model = model
			return domain.FullUpdate(model), nil
		}
		update, changed := domain.Diff(h.model, model)
		h.model = model
		if changed {
			return update, nil
		}
	}
}

func (h *Host) renderTree() (model any, err error) {
	r := newRenderer()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("component panicked: %v", p)
		}
	}()
	model = h.component(r)

	h.handlers = r.handlers
	h.syncEmbedded(r.embedded)
	return model, nil
}

func (h *Host) syncEmbedded(now []string) {
	h.mu.Lock()
	sink := h.sink
	h.mu.Unlock()

	prev := h.embedded
	h.embedded = slices.Compact(slices.Sorted(slices.Values(now)))
	if sink == nil {
		return
	}
	for _, id := range h.embedded {
		if !slices.Contains(prev, id) {
			sink.AddInner(id)
		}
	}
	for _, id := range prev {
		if !slices.Contains(h.embedded, id) {
			sink.RemoveInner(id)
		}
	}
}

// Exit implements ports.Layout. Embedded widgets are released and OnExit functions run
// once; later calls return the first result.
func (h *Host) Exit(ctx context.Context) error {
	h.exitOnce.Do(func() {
		h.mu.Lock()
		h.exited = true
		h.pending = nil
		fns := slices.Clone(h.onExit)
		sink := h.sink
		h.mu.Unlock()

		if sink != nil {
			for _, id := range h.embedded {
				sink.RemoveInner(id)
			}
		}

		var errs []error
		for i := len(fns) - 1; i >= 0; i-- {
			if err := fns[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		h.exitErr = errors.Join(errs...)
	})
	return h.exitErr
}
