package tui

import (
	"github.com/aretw0/canopy/pkg/adapters/terminal"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer for terminal views backed by glamour.
// Lines wrap at width; zero keeps glamour's default.
func NewRenderer(width int) terminal.Renderer {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return terminal.PlainRenderer{}
	}

	return terminal.RendererFunc(func(markdown string) (string, error) {
		return r.Render(markdown)
	})
}
