package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// Layout is a component-tree renderer driven by the render-dispatch loop.
//
// Enter is called once before the first Render and Exit once after the last one.
// Render blocks until the tree changes and returns the resulting patch.
// Deliver may be called from any goroutine while Render is blocked, so implementations
// must synchronise it with rendering. A Layout must not mutate a model after returning it.
type Layout interface {
	Enter(ctx context.Context) error
	Render(ctx context.Context) (domain.LayoutUpdate, error)
	Deliver(ctx context.Context, event domain.LayoutEvent) error
	Exit(ctx context.Context) error
}

// InnerWidgetBinder is implemented by Layouts that embed foreign widgets and need to
// announce them to the owning widget.
type InnerWidgetBinder interface {
	BindInnerWidgets(sink domain.InnerWidgets)
}
