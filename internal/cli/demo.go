package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/schema"
)

// demos are the built-in widgets the commands can mount by name.
var demos = map[string]func(logger *slog.Logger) ports.Layout{
	"counter": func(logger *slog.Logger) ports.Layout {
		return layout.New(Counter(), layout.WithLogger(logger))
	},
	"clock": func(logger *slog.Logger) ports.Layout {
		return NewClock(time.Second, logger)
	},
	"greeter": func(logger *slog.Logger) ports.Layout {
		return layout.New(Greeter(), layout.WithLogger(logger))
	},
}

const maxNameLen = 40

// DemoNames returns the names accepted by NewDemo, sorted.
func DemoNames() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewDemo builds the named demo Layout.
func NewDemo(name string, logger *slog.Logger) (ports.Layout, error) {
	build, ok := demos[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo %q (available: %s)", name, strings.Join(DemoNames(), ", "))
	}
	return build(logger), nil
}

// Counter is a click counter with a history of the last clicks. Its "+n" button takes
// the step as an integer argument.
func Counter() layout.Component {
	count := 0
	var history []string

	record := func(delta int) layout.Handler {
		return func(ctx context.Context, data []any) error {
			count += delta
			history = append(history, fmt.Sprintf("%+d", delta))
			if len(history) > 5 {
				history = history[len(history)-5:]
			}
			return nil
		}
	}

	return func(r *layout.Renderer) any {
		items := make([]any, 0, len(history))
		for _, h := range history {
			items = append(items, layout.H("li", nil, h))
		}
		return layout.H("div", layout.Attrs{"class": "counter"},
			layout.H("h1", nil, fmt.Sprintf("Count: %d", count)),
			layout.H("p", nil,
				layout.H("button", layout.Attrs{"onClick": r.Handler(record(1))}, "+1"),
				" ",
				layout.H("button", layout.Attrs{"onClick": r.Handler(record(-1))}, "-1"),
				" ",
				layout.H("button", layout.Attrs{"onClick": r.Handler(func(ctx context.Context, data []any) error {
					count, history = 0, nil
					return nil
				})}, "reset"),
				" ",
				layout.H("button", layout.Attrs{"onClick": r.TypedHandler(schema.Args{schema.Int()}, func(ctx context.Context, data []any) error {
					return record(int(data[0].(float64)))(ctx, nil)
				})}, "+n"),
			),
			layout.H("ul", nil, items),
		)
	}
}

// Greeter greets whoever is typed into its input. Both handlers take the browser's change
// event object: the text input reads "value" and the checkbox reads "checked".
func Greeter() layout.Component {
	name, shout := "", false

	nameType := schema.Custom("name", func(v any) error {
		if err := schema.String().Validate(v); err != nil {
			return err
		}
		if utf8.RuneCountInString(v.(string)) > maxNameLen {
			return fmt.Errorf("longer than %d characters", maxNameLen)
		}
		return nil
	})
	onName := schema.Args{schema.Object(schema.Schema{"value": nameType})}
	onShout := schema.Args{schema.Object(schema.Schema{"checked": schema.Bool()})}

	return func(r *layout.Renderer) any {
		greeting := "Hello, stranger"
		if name != "" {
			greeting = "Hello, " + name
		}
		if shout {
			greeting = strings.ToUpper(greeting) + "!"
		}
		return layout.H("div", layout.Attrs{"class": "greeter"},
			layout.H("h1", nil, greeting),
			layout.H("input", layout.Attrs{
				"value":       name,
				"placeholder": "your name",
				"onChange": r.TypedHandler(onName, func(ctx context.Context, data []any) error {
					name = strings.TrimSpace(data[0].(map[string]any)["value"].(string))
					return nil
				}),
			}),
			layout.H("label", nil,
				layout.H("input", layout.Attrs{
					"type":    "checkbox",
					"checked": shout,
					"onChange": r.TypedHandler(onShout, func(ctx context.Context, data []any) error {
						shout = data[0].(map[string]any)["checked"].(bool)
						return nil
					}),
				}),
				" shout",
			),
		)
	}
}

// NewClock returns a Layout showing the time, updated every interval until it exits.
func NewClock(interval time.Duration, logger *slog.Logger) *layout.Host {
	now := time.Now()
	paused := false

	h := layout.New(func(r *layout.Renderer) any {
		label := "pause"
		if paused {
			label = "resume"
		}
		return layout.H("div", nil,
			layout.H("h1", nil, now.Format(time.TimeOnly)),
			layout.H("button", layout.Attrs{"onClick": r.Handler(func(ctx context.Context, data []any) error {
				paused = !paused
				return nil
			})}, label),
		)
	}, layout.WithLogger(logger))

	stop := make(chan struct{})
	h.OnExit(func(ctx context.Context) error {
		close(stop)
		return nil
	})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				err := h.Update(func() {
					if !paused {
						now = t
					}
				})
				if err != nil {
					return
				}
			}
		}
	}()
	return h
}
