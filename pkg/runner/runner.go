package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
)

// Runner drives a Layout and publishes its patches to a Registry.
type Runner struct {
	Layout   ports.Layout
	Registry *registry.Registry

	// Store mirrors every published snapshot. If nil, snapshots live only in memory.
	Store    ports.SnapshotStore
	WidgetID string

	// Logger is used for internal logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	Hooks       domain.LifecycleHooks
	ExitTimeout time.Duration
}

// NewRunner creates a Runner for the given Layout and Registry.
func NewRunner(layout ports.Layout, reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{
		Layout:      layout,
		Registry:    reg,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		ExitTimeout: DefaultExitTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run enters the Layout and loops until ctx is cancelled or the Layout fails.
//
// Each iteration blocks in Render, then merges and broadcasts the patch. The Layout is
// exited exactly once on the way out, with a context detached from ctx so that
// cancellation does not skip cleanup. Views stay attached after a render failure.
func (r *Runner) Run(ctx context.Context) (err error) {
	logger := r.Logger.With("component", "runner")
	if r.WidgetID != "" {
		logger = logger.With("widget_id", r.WidgetID)
	}

	if err := r.Layout.Enter(ctx); err != nil {
		err = fmt.Errorf("enter layout: %w", err)
		r.Hooks.LoopExit(ctx, &domain.LoopEvent{EventBase: domain.NewEventBase(domain.EventLoopExit), Err: err})
		return err
	}

	defer func() {
		exitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.ExitTimeout)
		defer cancel()
		if exitErr := r.Layout.Exit(exitCtx); exitErr != nil {
			logger.Error("layout exit failed", "err", exitErr)
			if err == nil || errors.Is(err, context.Canceled) {
				err = fmt.Errorf("exit layout: %w", exitErr)
			}
		}
		r.Hooks.LoopExit(exitCtx, &domain.LoopEvent{EventBase: domain.NewEventBase(domain.EventLoopExit), Err: err})
	}()

	logger.Debug("loop started")
	for {
		update, err := r.Layout.Render(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("loop stopped", "reason", ctx.Err())
				return ctx.Err()
			}
			logger.Error("layout render failed", "err", err)
			return fmt.Errorf("render: %w", err)
		}

		snap, err := r.Registry.Publish(ctx, update)
		if err != nil {
			if errors.Is(err, registry.ErrRegistryClosed) {
				logger.Debug("registry closed, stopping loop")
				return context.Canceled
			}
			logger.Error("cannot apply layout update", "path", update.Path, "err", err)
			return fmt.Errorf("apply update: %w", err)
		}

		r.mirror(ctx, logger, snap)
	}
}

func (r *Runner) mirror(ctx context.Context, logger *slog.Logger, snap domain.Snapshot) {
	if r.Store == nil || r.WidgetID == "" {
		return
	}
	if err := r.Store.Save(ctx, r.WidgetID, snap); err != nil {
		logger.Warn("snapshot mirror failed", "revision", snap.Revision, "err", err)
	}
}
