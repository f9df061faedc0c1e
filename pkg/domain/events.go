package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRender      EventType = "render"
	EventViewReady   EventType = "view_ready"
	EventViewRemoved EventType = "view_removed"
	EventSendError   EventType = "send_error"
	EventScheduled   EventType = "event_scheduled"
	EventDropped     EventType = "event_dropped"
	EventMalformed   EventType = "malformed_message"
	EventLoopExit    EventType = "loop_exit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NewEventBase stamps an event of the given type with the current time.
func NewEventBase(t EventType) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t}
}

// RenderEvent describes one merged and broadcast update.
type RenderEvent struct {
	EventBase
	Path       string `json:"path"`
	Revision   uint64 `json:"revision"`
	Recipients int    `json:"recipients"`
}

// ViewEvent describes a view lifecycle change or a failed send to a view.
type ViewEvent struct {
	EventBase
	ViewID ViewID `json:"view_id"`
	Err    error  `json:"-"`
}

// MessageEvent describes the fate of an inbound message.
type MessageEvent struct {
	EventBase
	ViewID ViewID `json:"view_id,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Target string `json:"target,omitempty"`
	Err    error  `json:"-"`
}

// LoopEvent describes the termination of a render-dispatch loop.
type LoopEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for loop observability.
// Every field is optional.
type LifecycleHooks struct {
	OnRender         func(context.Context, *RenderEvent)
	OnViewReady      func(context.Context, *ViewEvent)
	OnViewRemoved    func(context.Context, *ViewEvent)
	OnSendError      func(context.Context, *ViewEvent)
	OnEventScheduled func(context.Context, *MessageEvent)
	OnEventDropped   func(context.Context, *MessageEvent)
	OnMalformed      func(context.Context, *MessageEvent)
	OnLoopExit       func(context.Context, *LoopEvent)
}

func (h LifecycleHooks) Render(ctx context.Context, e *RenderEvent) {
	if h.OnRender != nil {
		h.OnRender(ctx, e)
	}
}

func (h LifecycleHooks) ViewReady(ctx context.Context, e *ViewEvent) {
	if h.OnViewReady != nil {
		h.OnViewReady(ctx, e)
	}
}

func (h LifecycleHooks) ViewRemoved(ctx context.Context, e *ViewEvent) {
	if h.OnViewRemoved != nil {
		h.OnViewRemoved(ctx, e)
	}
}

func (h LifecycleHooks) SendError(ctx context.Context, e *ViewEvent) {
	if h.OnSendError != nil {
		h.OnSendError(ctx, e)
	}
}

func (h LifecycleHooks) EventScheduled(ctx context.Context, e *MessageEvent) {
	if h.OnEventScheduled != nil {
		h.OnEventScheduled(ctx, e)
	}
}

func (h LifecycleHooks) EventDropped(ctx context.Context, e *MessageEvent) {
	if h.OnEventDropped != nil {
		h.OnEventDropped(ctx, e)
	}
}

func (h LifecycleHooks) Malformed(ctx context.Context, e *MessageEvent) {
	if h.OnMalformed != nil {
		h.OnMalformed(ctx, e)
	}
}

func (h LifecycleHooks) LoopExit(ctx context.Context, e *LoopEvent) {
	if h.OnLoopExit != nil {
		h.OnLoopExit(ctx, e)
	}
}

// ChainHooks combines several hook sets; each callback runs in argument order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRender: func(ctx context.Context, e *RenderEvent) {
			for _, h := range hooks {
				h.Render(ctx, e)
			}
		},
		OnViewReady: func(ctx context.Context, e *ViewEvent) {
			for _, h := range hooks {
				h.ViewReady(ctx, e)
			}
		},
		OnViewRemoved: func(ctx context.Context, e *ViewEvent) {
			for _, h := range hooks {
				h.ViewRemoved(ctx, e)
			}
		},
		OnSendError: func(ctx context.Context, e *ViewEvent) {
			for _, h := range hooks {
				h.SendError(ctx, e)
			}
		},
		OnEventScheduled: func(ctx context.Context, e *MessageEvent) {
			for _, h := range hooks {
				h.EventScheduled(ctx, e)
			}
		},
		OnEventDropped: func(ctx context.Context, e *MessageEvent) {
			for _, h := range hooks {
				h.EventDropped(ctx, e)
			}
		},
		OnMalformed: func(ctx context.Context, e *MessageEvent) {
			for _, h := range hooks {
				h.Malformed(ctx, e)
			}
		},
		OnLoopExit: func(ctx context.Context, e *LoopEvent) {
			for _, h := range hooks {
				h.LoopExit(ctx, e)
			}
		},
	}
}
