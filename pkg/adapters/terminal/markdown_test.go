package terminal_test

import (
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/terminal"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	tree := layout.H("div", nil,
		layout.H("h1", nil, "Counter"),
		layout.H("p", nil, "Clicked ", layout.H("strong", nil, "3"), " times"),
		layout.H("ul", nil,
			layout.H("li", nil, "one"),
			layout.H("li", nil, layout.H("code", nil, "two")),
		),
		layout.H("button", layout.Attrs{"onClick": layout.EventHandler{Target: "h0"}}, "+1"),
	)

	want := "# Counter\n\n" +
		"Clicked **3** times\n\n" +
		"- one\n" +
		"- `two`\n\n" +
		"[+1](h0)\n"
	assert.Equal(t, want, terminal.Markdown(tree))
}

func TestMarkdown_Plain(t *testing.T) {
	assert.Equal(t, "hello\n", terminal.Markdown("hello"))
	assert.Equal(t, "\n", terminal.Markdown(nil))
}

func TestMarkdown_Link(t *testing.T) {
	tree := layout.H("p", nil, layout.H("a", layout.Attrs{"href": "https://example.com"}, "site"))
	assert.Equal(t, "[site](https://example.com)\n", terminal.Markdown(tree))
}
