package http

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestWSView_Backpressure(t *testing.T) {
	v := newWSView(nil, 1, time.Second, slogNop())
	ctx := context.Background()
	msg := domain.Envelope{ViewID: v.id, Data: domain.FullUpdate("x")}

	assert.NoError(t, v.Send(ctx, msg))
	assert.ErrorIs(t, v.Send(ctx, msg), ErrViewBackpressure)

	<-v.queue
	assert.NoError(t, v.Send(ctx, msg), "draining the queue frees a slot")

	close(v.done)
	assert.ErrorIs(t, v.Send(ctx, msg), ErrViewClosed)
}

func slogNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
