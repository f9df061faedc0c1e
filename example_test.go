package canopy_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/ports"
)

// ExampleMount demonstrates a counter shared by a view: the view bootstraps with the whole
// tree, sends a click, and receives only the changed text.
func ExampleMount() {
	count := 0
	w, err := canopy.Mount(func(r *layout.Renderer) any {
		return layout.H("div", nil,
			layout.H("p", nil, fmt.Sprintf("clicked %d times", count)),
			layout.H("button", layout.Attrs{
				"onClick": r.Handler(func(ctx context.Context, data []any) error {
					count++
					return nil
				}),
			}, "click me"),
		)
	})
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	inbox := make(chan domain.Envelope, 8)
	view := ports.ChannelFunc(func(ctx context.Context, msg domain.Envelope) error {
		inbox <- msg
		return nil
	})

	ctx := context.Background()
	// Attach once the first render is in; an earlier view would get the empty model first.
	for w.Snapshot().Revision == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := w.Handle(ctx, map[string]any{"type": "client-ready", "viewId": "v1"}, view); err != nil {
		log.Fatal(err)
	}
	bootstrap := <-inbox
	fmt.Printf("bootstrap %q: %s\n", bootstrap.Data.Path, layout.Text(bootstrap.Data.Model))

	_ = w.Handle(ctx, map[string]any{
		"type":   "dom-event",
		"viewId": "v1",
		"data":   map[string]any{"target": "h0", "data": []any{}},
	}, nil)
	patch := <-inbox
	fmt.Printf("patch %q: %v\n", patch.Data.Path, patch.Data.Model)

	// Output:
	// bootstrap "": clicked 0 timesclick me
	// patch "/children/0/children/0": clicked 1 times
}
