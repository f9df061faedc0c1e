package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultExitTimeout bounds how long Layout.Exit may take once the loop stops.
const DefaultExitTimeout = 5 * time.Second

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures the SnapshotStore the snapshot is mirrored to after every publish.
func WithStore(store ports.SnapshotStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithWidgetID sets the widget ID used as the persistence key and in logs.
// This is required if WithStore is used.
func WithWidgetID(id string) Option {
	return func(r *Runner) {
		r.WidgetID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithHooks configures the lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.Hooks = hooks
	}
}

// WithExitTimeout bounds the Layout's exit hook. Non-positive values keep the default.
func WithExitTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.ExitTimeout = d
		}
	}
}

// RouterOption defines a functional option for configuring the Router.
type RouterOption func(*Router)

// WithRouterLogger configures the router's structured logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.Logger = logger
	}
}

// WithRouterHooks configures the router's lifecycle hooks.
func WithRouterHooks(hooks domain.LifecycleHooks) RouterOption {
	return func(r *Router) {
		r.Hooks = hooks
	}
}
