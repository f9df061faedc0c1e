package canopy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/executor"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/runner"
	"github.com/google/uuid"
)

// Widget is one live component tree shared by any number of views.
// It owns a Layout, the Registry of views attached to it, and the execution context
// running its render-dispatch loop.
type Widget struct {
	id                  string
	importSourceBaseURL string
	layout              ports.Layout
	registry            *registry.Registry
	router              *runner.Router
	exec                *executor.Context
	inner               *innerWidgets

	store       ports.SnapshotStore
	hooks       domain.LifecycleHooks
	exitTimeout time.Duration
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
	cleanup   runtime.Cleanup
}

// Option defines a functional option for configuring a Widget.
type Option func(*Widget)

// WithLogger sets a custom structured logger for the widget.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Widget) {
		w.logger = logger
	}
}

// WithID sets the widget ID (default: a random UUID).
func WithID(id string) Option {
	return func(w *Widget) {
		w.id = id
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Widget) {
		w.hooks = hooks
	}
}

// WithSnapshotStore mirrors every snapshot to store. A snapshot already stored under the
// widget ID is served to views joining before the first render.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(w *Widget) {
		w.store = store
	}
}

// WithImportSourceBaseURL sets where views load the widget's web modules from.
// Without it the process default is used (see SetDefaultImportSourceBaseURL).
func WithImportSourceBaseURL(url string) Option {
	return func(w *Widget) {
		w.importSourceBaseURL = url
	}
}

// WithExitTimeout bounds how long the Layout's Exit may run once the widget stops.
func WithExitTimeout(d time.Duration) Option {
	return func(w *Widget) {
		w.exitTimeout = d
	}
}

// New starts a widget driving layout. The loop is running when New returns.
func New(l ports.Layout, opts ...Option) (*Widget, error) {
	if l == nil {
		return nil, errors.New("canopy: nil layout")
	}

	w := &Widget{
		layout: l,
		inner:  newInnerWidgets(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.id == "" {
		w.id = uuid.NewString()
	}
	if w.importSourceBaseURL == "" {
		w.importSourceBaseURL = DefaultImportSourceBaseURL()
	}
	w.logger = w.logger.With("widget_id", w.id)

	regOpts := []registry.Option{
		registry.WithLogger(w.logger.With("component", "registry")),
		registry.WithHooks(w.hooks),
	}
	if snap, ok := w.restore(); ok {
		regOpts = append(regOpts, registry.WithSnapshot(snap))
	}
	w.registry = registry.New(regOpts...)

	if binder, ok := l.(ports.InnerWidgetBinder); ok {
		binder.BindInnerWidgets(w.inner)
	}

	r := runner.NewRunner(l, w.registry,
		runner.WithLogger(w.logger),
		runner.WithHooks(w.hooks),
		runner.WithStore(w.store),
		runner.WithWidgetID(w.id),
		runner.WithExitTimeout(w.exitTimeout),
	)
	exec, err := executor.Spawn(context.Background(), r.Run,
		executor.WithLogger(w.logger.With("component", "executor")),
	)
	if err != nil {
		return nil, fmt.Errorf("spawn loop: %w", err)
	}
	w.exec = exec
	w.router = runner.NewRouter(l, w.registry, exec,
		runner.WithRouterLogger(w.logger),
		runner.WithRouterHooks(w.hooks),
	)

	// A widget dropped without Close still stops its loop and exits its Layout.
	w.cleanup = runtime.AddCleanup(w, func(ex *executor.Context) { _ = ex.Close() }, exec)

	w.logger.Debug("widget started")
	return w, nil
}

// Mount builds a reference Layout for component and starts a widget for it.
func Mount(component layout.Component, opts ...Option) (*Widget, error) {
	return New(layout.New(component), opts...)
}

func (w *Widget) restore() (domain.Snapshot, bool) {
	if w.store == nil {
		return domain.Snapshot{}, false
	}
	snap, err := w.store.Load(context.Background(), w.id)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			w.logger.Warn("cannot restore snapshot", "err", err)
		}
		return domain.Snapshot{}, false
	}
	w.logger.Debug("snapshot restored", "revision", snap.Revision)
	return snap, true
}

// ID returns the widget ID.
func (w *Widget) ID() string { return w.id }

// ImportSourceBaseURL returns the base URL views load web modules from.
func (w *Widget) ImportSourceBaseURL() string { return w.importSourceBaseURL }

// Handle routes a raw message from a view. reply is registered on client-ready.
func (w *Widget) Handle(ctx context.Context, raw map[string]any, reply ports.Channel) error {
	return w.router.Route(ctx, raw, reply)
}

// HandleJSON routes a JSON encoded message from a view.
func (w *Widget) HandleJSON(ctx context.Context, data []byte, reply ports.Channel) error {
	return w.router.RouteJSON(ctx, data, reply)
}

// Snapshot returns the current model snapshot.
func (w *Widget) Snapshot() domain.Snapshot { return w.registry.Snapshot() }

// Views returns the IDs of the ready views.
func (w *Widget) Views() []domain.ViewID { return w.registry.Views() }

// ViewStatus returns the lifecycle state of a view.
func (w *Widget) ViewStatus(id domain.ViewID) domain.ViewStatus { return w.registry.Status(id) }

// Done is closed once the loop has stopped and the Layout has exited.
func (w *Widget) Done() <-chan struct{} { return w.exec.Done() }

// Err returns why the loop stopped, once it has.
func (w *Widget) Err() error { return w.exec.Err() }

// Close stops the loop and waits until the Layout has exited. No message is sent to any
// view once Close returns. Calling Close more than once is harmless.
func (w *Widget) Close() error {
	w.closeOnce.Do(func() {
		w.cleanup.Stop()
		w.registry.Close(context.Background())
		w.closeErr = w.exec.Close()
		w.inner.close()
		w.logger.Debug("widget closed")
	})
	return w.closeErr
}

// AddInner records an embedded foreign widget and notifies observers.
func (w *Widget) AddInner(widgetID string) { w.inner.AddInner(widgetID) }

// RemoveInner forgets an embedded foreign widget and notifies observers.
func (w *Widget) RemoveInner(widgetID string) { w.inner.RemoveInner(widgetID) }

// InnerWidgets returns the embedded widget IDs in insertion order.
func (w *Widget) InnerWidgets() []string { return w.inner.list() }

// Observe registers fn for inner widget changes. The returned function unregisters it.
// Every observer is dropped when the widget closes.
func (w *Widget) Observe(fn func(domain.InnerChange)) (unregister func()) {
	return w.inner.observe(fn)
}

// MarshalJSON encodes a summary of the widget.
func (w *Widget) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Info())
}

// Info summarises a widget for listings.
type Info struct {
	ID                  string          `json:"id"`
	Views               []domain.ViewID `json:"views"`
	Revision            uint64          `json:"revision"`
	ImportSourceBaseURL string          `json:"importSourceBaseUrl,omitempty"`
	InnerWidgets        []string        `json:"innerWidgets,omitempty"`
}

// Info returns a summary of the widget.
func (w *Widget) Info() Info {
	snap := w.Snapshot()
	return Info{
		ID:                  w.id,
		Views:               w.Views(),
		Revision:            snap.Revision,
		ImportSourceBaseURL: w.importSourceBaseURL,
		InnerWidgets:        w.InnerWidgets(),
	}
}
