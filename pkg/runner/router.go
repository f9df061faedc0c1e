package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/executor"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
)

// Scheduler hands a task over to the loop's execution context without blocking.
// *executor.Context implements it.
type Scheduler interface {
	Schedule(task executor.Task) error
}

// Router dispatches inbound view messages.
type Router struct {
	Layout    ports.Layout
	Registry  *registry.Registry
	Scheduler Scheduler

	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
}

// NewRouter creates a Router delivering events to layout through sched.
func NewRouter(layout ports.Layout, reg *registry.Registry, sched Scheduler, opts ...RouterOption) *Router {
	r := &Router{
		Layout:    layout,
		Registry:  reg,
		Scheduler: sched,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Logger = r.Logger.With("component", "router")
	return r
}

// Route handles one raw message from a view. reply is the channel a client-ready
// registers; it may be nil for other message types.
//
// Route never blocks on the loop and never panics into the caller. Malformed messages and
// events that cannot be scheduled are logged and dropped; the error is returned for
// callers that want it.
func (r *Router) Route(ctx context.Context, raw map[string]any, reply ports.Channel) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error("panic while routing message", "panic", p)
			err = fmt.Errorf("route: panic: %v", p)
		}
	}()

	msg, err := domain.DecodeInbound(raw)
	if err != nil {
		r.Logger.Warn("dropping malformed message", "err", err)
		r.Hooks.Malformed(ctx, &domain.MessageEvent{EventBase: domain.NewEventBase(domain.EventMalformed), Err: err})
		return err
	}

	switch m := msg.(type) {
	case domain.ClientReady:
		if reply == nil {
			return fmt.Errorf("client-ready from %q: no reply channel", m.ViewID)
		}
		return r.Registry.Register(ctx, m.ViewID, reply)

	case domain.DOMEvent:
		return r.schedule(ctx, m)

	case domain.ClientRemoved:
		r.Registry.Unregister(ctx, m.ViewID)
		return nil

	default:
		r.Logger.Debug("ignoring unknown message", "type", msg.Kind())
		return nil
	}
}

// RouteJSON decodes a JSON text message and routes it.
func (r *Router) RouteJSON(ctx context.Context, data []byte, reply ports.Channel) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
		r.Logger.Warn("dropping malformed message", "err", err)
		r.Hooks.Malformed(ctx, &domain.MessageEvent{EventBase: domain.NewEventBase(domain.EventMalformed), Err: err})
		return err
	}
	return r.Route(ctx, raw, reply)
}

func (r *Router) schedule(ctx context.Context, m domain.DOMEvent) error {
	event := m.Event
	info := &domain.MessageEvent{
		EventBase: domain.NewEventBase(domain.EventScheduled),
		ViewID:    m.ViewID,
		Kind:      m.Kind(),
		Target:    event.Target,
	}

	err := r.Scheduler.Schedule(func(loopCtx context.Context) {
		if err := r.Layout.Deliver(loopCtx, event); err != nil {
			r.Logger.Warn("layout rejected event", "view_id", event.ViewID, "target", event.Target, "err", err)
		}
	})
	if err != nil {
		r.Logger.Warn("dropping event", "view_id", m.ViewID, "target", event.Target, "err", err)
		info.Type = domain.EventDropped
		info.Err = err
		r.Hooks.EventDropped(ctx, info)
		return fmt.Errorf("schedule event: %w", err)
	}
	r.Hooks.EventScheduled(ctx, info)
	return nil
}
