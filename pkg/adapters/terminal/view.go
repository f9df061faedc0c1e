package terminal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Renderer turns markdown into terminal output. *glamour.TermRenderer satisfies it.
type Renderer interface {
	Render(in string) (string, error)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(in string) (string, error)

// Render calls f(in).
func (f RendererFunc) Render(in string) (string, error) { return f(in) }

// PlainRenderer returns markdown unchanged.
type PlainRenderer struct{}

func (PlainRenderer) Render(in string) (string, error) { return in, nil }

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

// View is a ports.Channel that keeps its own copy of the widget model and prints it.
//
// Send applies the update and returns; printing happens in Run. Renders coalesce, so a
// slow terminal only ever shows the latest model.
type View struct {
	out      io.Writer
	renderer Renderer
	logger   *slog.Logger
	clear    bool

	mu   sync.Mutex
	snap domain.Snapshot
	wake chan struct{}
}

// Option configures a View.
type Option func(*View)

// WithRenderer sets the markdown renderer.
func WithRenderer(r Renderer) Option {
	return func(v *View) {
		v.renderer = r
	}
}

// WithLogger sets the view logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *View) {
		v.logger = logger
	}
}

// WithClearScreen clears the terminal before every frame.
func WithClearScreen(clear bool) Option {
	return func(v *View) {
		v.clear = clear
	}
}

// NewView creates a View printing to out.
func NewView(out io.Writer, opts ...Option) *View {
	v := &View{
		out:      out,
		renderer: PlainRenderer{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Send applies msg to the view's model.
func (v *View) Send(ctx context.Context, msg domain.Envelope) error {
	v.mu.Lock()
	next, err := domain.ApplyUpdate(v.snap, msg.Data)
	if err == nil {
		v.snap = next
	}
	v.mu.Unlock()
	if err != nil {
		return fmt.Errorf("terminal view: %w", err)
	}

	select {
	case v.wake <- struct{}{}:
	default:
	}
	return nil
}

// Snapshot returns the model as the view currently sees it.
func (v *View) Snapshot() domain.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Markdown returns the current model as markdown.
func (v *View) Markdown() string {
	return Markdown(v.Snapshot().Model)
}

// Run prints a frame after every change until ctx is done.
func (v *View) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.wake:
			if err := v.Draw(); err != nil {
				v.logger.Warn("failed to draw", "err", err)
			}
		}
	}
}

// Draw prints the current model once.
func (v *View) Draw() error {
	out, err := v.renderer.Render(v.Markdown())
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	if v.clear {
		out = clearScreen + out
	}
	_, err = io.WriteString(v.out, out)
	return err
}
