package stdio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/stdio"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/layout"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []map[string]any
}

func (r *recorder) Handle(ctx context.Context, raw map[string]any, reply ports.Channel) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, raw)
	r.mu.Unlock()
	if raw["type"] == domain.MessageClientReady {
		return reply.Send(ctx, domain.Envelope{ViewID: domain.ViewID(raw["viewId"].(string)), Data: domain.FullUpdate("hi")})
	}
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		out = append(out, m["type"].(string))
	}
	return out
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSpace(b.buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestTransport_Serve(t *testing.T) {
	in := strings.NewReader(
		`{"type":"dom-event","data":{"target":"h0","data":[1]}}` + "\n" +
			"\n" +
			"not json\n" +
			`{"type":"dom-event","viewId":"other","data":{"target":"h1"}}` + "\n" +
			`{"type":"dom-event","viewId":0,"data":{"target":"h2"}}` + "\n" +
			`{"type":"dom-event","viewId":"","data":{"target":"h3"}}`,
	)
	out := &syncBuffer{}
	rec := &recorder{}

	tr := stdio.New(in, out, stdio.WithViewID("cli"))
	require.NoError(t, tr.Serve(context.Background(), rec))

	assert.Equal(t, []string{"client-ready", "dom-event", "dom-event", "dom-event", "dom-event", "client-removed"}, rec.types())
	assert.Equal(t, "cli", rec.msgs[1]["viewId"], "missing view IDs are filled in")
	assert.Equal(t, "other", rec.msgs[2]["viewId"], "explicit view IDs are kept")
	assert.Equal(t, float64(0), rec.msgs[3]["viewId"], "numeric view IDs are kept")
	assert.Equal(t, "cli", rec.msgs[4]["viewId"], "empty view IDs are filled in")

	lines := out.lines()
	require.Len(t, lines, 1)
	var env domain.Envelope
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, domain.ViewID("cli"), env.ViewID)
	assert.Equal(t, "hi", env.Data.Model)
}

func TestTransport_Cancellation(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	tr := stdio.New(r, &syncBuffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tr.Serve(ctx, &recorder{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransport_QueueFull(t *testing.T) {
	tr := stdio.New(strings.NewReader(""), io.Discard, stdio.WithQueueSize(1))
	ctx := context.Background()

	require.NoError(t, tr.Send(ctx, domain.Envelope{}))
	assert.ErrorIs(t, tr.Send(ctx, domain.Envelope{}), stdio.ErrQueueFull)
	assert.Equal(t, stdio.DefaultViewID, tr.ViewID())
}

func TestTransport_Widget(t *testing.T) {
	count := 0
	w, err := canopy.Mount(func(r *layout.Renderer) any {
		return layout.H("button", layout.Attrs{
			"onClick": r.Handler(func(ctx context.Context, data []any) error {
				count++
				return nil
			}),
		}, fmt.Sprint(count))
	})
	require.NoError(t, err)
	defer w.Close()
	require.Eventually(t, func() bool { return w.Snapshot().Revision >= 1 }, 2*time.Second, time.Millisecond)

	pr, pw := io.Pipe()
	out := &syncBuffer{}
	tr := stdio.New(pr, out)

	done := make(chan error, 1)
	go func() { done <- tr.Serve(context.Background(), w) }()

	require.Eventually(t, func() bool { return len(out.lines()) == 1 }, 2*time.Second, time.Millisecond)
	_, err = io.WriteString(pw, `{"type":"dom-event","data":{"target":"h0","data":[]}}`+"\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(out.lines()) == 2 }, 2*time.Second, time.Millisecond)

	require.NoError(t, pw.Close())
	require.NoError(t, <-done)

	var patch domain.Envelope
	require.NoError(t, json.Unmarshal([]byte(out.lines()[1]), &patch))
	assert.Equal(t, "/children/0", patch.Data.Path)
	assert.Equal(t, "1", patch.Data.Model)
	require.Eventually(t, func() bool { return w.ViewStatus(stdio.DefaultViewID) == domain.ViewRemoved }, 2*time.Second, time.Millisecond)
}
