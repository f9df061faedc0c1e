package layout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/canopy/pkg/schema"
)

// ErrInvalidEventData is returned by typed handlers for event data of the wrong shape.
var ErrInvalidEventData = errors.New("invalid event data")

// Handler reacts to a UI event. It runs on the loop goroutine, between renders, so it
// may freely mutate the state its component closes over. The tree is re-rendered after
// every handler call.
type Handler func(ctx context.Context, data []any) error

// Component renders the current state as a tree.
type Component func(r *Renderer) any

// Renderer is handed to a Component during one render.
type Renderer struct {
	handlers map[string]Handler
	embedded []string
	next     int
}

func newRenderer() *Renderer {
	return &Renderer{handlers: make(map[string]Handler)}
}

// Handler registers fn for this render and returns a reference to place in Attrs.
// Targets are assigned in call order, so they are stable as long as the tree's shape is.
func (r *Renderer) Handler(fn Handler) EventHandler {
	target := "h" + strconv.Itoa(r.next)
	r.next++
	r.handlers[target] = fn
	return EventHandler{Target: target}
}

// TypedHandler is Handler for events whose data must match args. Events that do not are
// rejected with an error before fn runs. The argument types are published with the
// handler reference so that views know what to send.
func (r *Renderer) TypedHandler(args schema.Args, fn Handler) EventHandler {
	ref := r.Handler(func(ctx context.Context, data []any) error {
		if err := schema.ValidateArgs(args, data); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEventData, err)
		}
		return fn(ctx, data)
	})
	ref.Args = args
	return ref
}

// Embed places a foreign widget in the tree. The owning widget is told when it is first
// embedded and when a render no longer contains it.
func (r *Renderer) Embed(widgetID string) Element {
	r.embedded = append(r.embedded, widgetID)
	return H("span", Attrs{"class": "widget-model-id-" + widgetID})
}
