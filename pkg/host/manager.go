package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/ports"
)

// ErrWidgetExists is returned when mounting a widget under an ID already in use.
var ErrWidgetExists = errors.New("widget already mounted")

// Manager keeps track of mounted widgets.
type Manager struct {
	mu      sync.RWMutex
	widgets map[string]*canopy.Widget
	closed  bool

	store        ports.SnapshotStore
	hooks        domain.LifecycleHooks
	importSource string
	logger       *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager and its widgets.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStore mirrors every widget's snapshots to store.
func WithStore(store ports.SnapshotStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithHooks registers lifecycle hooks on every widget.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithImportSourceBaseURL sets the base URL of widgets mounted without one.
func WithImportSourceBaseURL(url string) Option {
	return func(m *Manager) {
		m.importSource = url
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		widgets: make(map[string]*canopy.Widget),
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mount starts a widget for l. Options given here override the Manager's defaults.
func (m *Manager) Mount(ctx context.Context, l ports.Layout, opts ...canopy.Option) (*canopy.Widget, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, errors.New("host: manager closed")
	}

	defaults := []canopy.Option{
		canopy.WithLogger(m.logger),
		canopy.WithHooks(m.hooks),
	}
	if m.store != nil {
		defaults = append(defaults, canopy.WithSnapshotStore(m.store))
	}
	if m.importSource != "" {
		defaults = append(defaults, canopy.WithImportSourceBaseURL(m.importSource))
	}

	w, err := canopy.New(l, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	m.mu.Lock()
	_, exists := m.widgets[w.ID()]
	if !exists && !m.closed {
		m.widgets[w.ID()] = w
	}
	closed = m.closed
	m.mu.Unlock()

	if exists || closed {
		_ = w.Close()
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrWidgetExists, w.ID())
		}
		return nil, errors.New("host: manager closed")
	}

	m.logger.Info("widget mounted", "widget_id", w.ID())
	return w, nil
}

// MountComponent mounts a reference Layout rendering component.
func (m *Manager) MountComponent(ctx context.Context, component layout.Component, opts ...canopy.Option) (*canopy.Widget, error) {
	return m.Mount(ctx, layout.New(component, layout.WithLogger(m.logger)), opts...)
}

// Get returns the widget mounted under id.
func (m *Manager) Get(id string) (*canopy.Widget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.widgets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWidgetNotFound, id)
	}
	return w, nil
}

// List returns the mounted widget IDs, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.widgets))
	for id := range m.widgets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Widgets returns the mounted widgets ordered by ID.
func (m *Manager) Widgets() []*canopy.Widget {
	ids := m.List()
	out := make([]*canopy.Widget, 0, len(ids))
	for _, id := range ids {
		if w, err := m.Get(id); err == nil {
			out = append(out, w)
		}
	}
	return out
}

// Unmount closes the widget and forgets it. Its stored snapshot, if any, is kept.
func (m *Manager) Unmount(id string) error {
	m.mu.Lock()
	w, ok := m.widgets[id]
	delete(m.widgets, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrWidgetNotFound, id)
	}
	err := w.Close()
	m.logger.Info("widget unmounted", "widget_id", id)
	return err
}

// Route hands a raw view message to the widget mounted under id.
func (m *Manager) Route(ctx context.Context, id string, raw map[string]any, reply ports.Channel) error {
	w, err := m.Get(id)
	if err != nil {
		return err
	}
	return w.Handle(ctx, raw, reply)
}

// Close unmounts every widget. Mounting afterwards fails.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	widgets := m.widgets
	m.widgets = make(map[string]*canopy.Widget)
	m.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, 0, len(widgets))
	var errMu sync.Mutex
	for id, w := range widgets {
		wg.Go(func() {
			if err := w.Close(); err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("widget %s: %w", id, err))
				errMu.Unlock()
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}
