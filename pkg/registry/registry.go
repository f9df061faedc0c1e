// Package registry tracks the views attached to one widget and fans patches out to them.
//
// The Registry owns the widget's model snapshot. Merging a patch into the snapshot and
// broadcasting it happen under one lock, and so do registering a view and sending it the
// bootstrap snapshot. A view therefore sees the model strictly before or strictly after
// any given patch, never both and never neither.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// ErrRegistryClosed is returned by operations on a closed registry.
var ErrRegistryClosed = errors.New("registry closed")

// maxTombstones bounds how many removed view IDs are remembered for Status.
const maxTombstones = 1024

// Registry manages the views of a widget.
type Registry struct {
	mu         sync.Mutex
	views      map[domain.ViewID]ports.Channel
	tombstones []domain.ViewID
	snapshot   domain.Snapshot
	closed     bool

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithHooks sets the lifecycle hooks fired on view and broadcast events.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithSnapshot seeds the registry with a previously stored snapshot.
func WithSnapshot(snap domain.Snapshot) Option {
	return func(r *Registry) {
		r.snapshot = snap
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		views:  make(map[domain.ViewID]ports.Channel),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register marks the view ready and sends it the whole current snapshot as a single
// full-replacement update. Registering a view that is already ready replaces its channel
// and sends the snapshot again. A bootstrap send failure is returned; the view stays ready.
func (r *Registry) Register(ctx context.Context, id domain.ViewID, ch ports.Channel) error {
	if ch == nil {
		return fmt.Errorf("register view %q: nil channel", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}

	_, wasReady := r.views[id]
	r.views[id] = ch
	if !wasReady {
		r.tombstones = slices.DeleteFunc(r.tombstones, func(t domain.ViewID) bool { return t == id })
		r.hooks.ViewReady(ctx, &domain.ViewEvent{EventBase: domain.NewEventBase(domain.EventViewReady), ViewID: id})
	}
	r.logger.Debug("view ready", "view_id", id, "revision", r.snapshot.Revision)

	msg := domain.Envelope{ViewID: id, Data: r.snapshot.Bootstrap()}
	if err := ch.Send(ctx, msg); err != nil {
		r.sendFailed(ctx, id, err)
		return fmt.Errorf("bootstrap view %q: %w", id, err)
	}
	return nil
}

// Unregister marks the view removed. Unknown and already removed views are ignored.
func (r *Registry) Unregister(ctx context.Context, id domain.ViewID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.views[id]; !ok {
		return
	}
	r.remove(ctx, id)
}

// remove forgets the view, keeping a bounded tombstone so Status can report it removed.
func (r *Registry) remove(ctx context.Context, id domain.ViewID) {
	delete(r.views, id)
	r.tombstones = append(r.tombstones, id)
	if len(r.tombstones) > maxTombstones {
		r.tombstones = r.tombstones[len(r.tombstones)-maxTombstones:]
	}
	r.logger.Debug("view removed", "view_id", id)
	r.hooks.ViewRemoved(ctx, &domain.ViewEvent{EventBase: domain.NewEventBase(domain.EventViewRemoved), ViewID: id})
}

// Publish merges the update into the snapshot and broadcasts it to every ready view.
// It returns the new snapshot. A path that cannot be applied leaves the snapshot
// unchanged and nothing is sent.
func (r *Registry) Publish(ctx context.Context, update domain.LayoutUpdate) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return r.snapshot, ErrRegistryClosed
	}

	next, err := domain.ApplyUpdate(r.snapshot, update)
	if err != nil {
		return r.snapshot, err
	}
	r.snapshot = next

	sent, _ := r.broadcast(ctx, update)
	r.hooks.Render(ctx, &domain.RenderEvent{
		EventBase:  domain.NewEventBase(domain.EventRender),
		Path:       update.Path,
		Revision:   next.Revision,
		Recipients: sent,
	})
	return next, nil
}

// Broadcast sends the update to every ready view without touching the snapshot.
// Failures are logged and joined into the returned error; delivery to the other views
// continues.
func (r *Registry) Broadcast(ctx context.Context, update domain.LayoutUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	_, err := r.broadcast(ctx, update)
	return err
}

func (r *Registry) broadcast(ctx context.Context, update domain.LayoutUpdate) (int, error) {
	var (
		errs []error
		sent int
	)
	for _, id := range r.readyLocked() {
		if err := r.views[id].Send(ctx, domain.Envelope{ViewID: id, Data: update}); err != nil {
			r.sendFailed(ctx, id, err)
			errs = append(errs, fmt.Errorf("view %q: %w", id, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (r *Registry) sendFailed(ctx context.Context, id domain.ViewID, err error) {
	r.logger.Warn("send to view failed", "view_id", id, "err", err)
	r.hooks.SendError(ctx, &domain.ViewEvent{EventBase: domain.NewEventBase(domain.EventSendError), ViewID: id, Err: err})
}

// readyLocked returns the ready view IDs in a stable order.
// Only ready views are kept in r.views.
func (r *Registry) readyLocked() []domain.ViewID {
	ids := make([]domain.ViewID, 0, len(r.views))
	for id := range r.views {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Status returns the lifecycle state of a view.
func (r *Registry) Status(id domain.ViewID) domain.ViewStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; ok {
		return domain.ViewReady
	}
	if slices.Contains(r.tombstones, id) {
		return domain.ViewRemoved
	}
	return domain.ViewUnregistered
}

// Views returns the IDs of the ready views, sorted.
func (r *Registry) Views() []domain.ViewID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readyLocked()
}

// Close marks every ready view removed and stops all further sends.
// It is idempotent.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, id := range r.readyLocked() {
		r.remove(ctx, id)
	}
}
