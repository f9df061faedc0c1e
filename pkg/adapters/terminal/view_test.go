package terminal_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/terminal"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type upperRenderer struct{}

func (upperRenderer) Render(in string) (string, error) { return strings.ToUpper(in), nil }

type failingRenderer struct{}

func (failingRenderer) Render(in string) (string, error) { return "", errors.New("boom") }

func TestView_AppliesUpdates(t *testing.T) {
	v := terminal.NewView(&bytes.Buffer{})
	ctx := context.Background()

	tree := layout.H("div", nil, layout.H("h2", nil, "Count: 0"))
	require.NoError(t, v.Send(ctx, domain.Envelope{ViewID: "tty", Data: domain.FullUpdate(tree)}))
	require.NoError(t, v.Send(ctx, domain.Envelope{ViewID: "tty", Data: domain.NewUpdate("/children/0/children/0", "Count: 1")}))

	assert.Equal(t, uint64(2), v.Snapshot().Revision)
	assert.Equal(t, "## Count: 1\n", v.Markdown())
}

func TestView_RejectsBadPath(t *testing.T) {
	v := terminal.NewView(&bytes.Buffer{})
	err := v.Send(context.Background(), domain.Envelope{Data: domain.NewUpdate("/nope/0", "x")})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
	assert.Equal(t, uint64(0), v.Snapshot().Revision)
}

func TestView_Run(t *testing.T) {
	out := &syncBuffer{}
	v := terminal.NewView(out, terminal.WithRenderer(upperRenderer{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	require.NoError(t, v.Send(ctx, domain.Envelope{Data: domain.FullUpdate(layout.H("p", nil, "hi"))}))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "HI") }, 2*time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestView_DrawClearsScreen(t *testing.T) {
	out := &syncBuffer{}
	v := terminal.NewView(out, terminal.WithClearScreen(true))
	require.NoError(t, v.Send(context.Background(), domain.Envelope{Data: domain.FullUpdate("x")}))
	require.NoError(t, v.Draw())
	assert.True(t, strings.HasPrefix(out.String(), "\033[H\033[2J"))
}

func TestView_DrawRendererError(t *testing.T) {
	v := terminal.NewView(&bytes.Buffer{}, terminal.WithRenderer(failingRenderer{}))
	assert.Error(t, v.Draw())
}
