package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// Channel delivers envelopes to a single view.
// Send is called while the registry lock is held: it must hand the message off without
// blocking (enqueue it, or fail fast) and be safe for concurrent use.
type Channel interface {
	Send(ctx context.Context, msg domain.Envelope) error
}

// ChannelFunc adapts a plain function to the Channel interface.
type ChannelFunc func(ctx context.Context, msg domain.Envelope) error

// Send calls f(ctx, msg).
func (f ChannelFunc) Send(ctx context.Context, msg domain.Envelope) error {
	return f(ctx, msg)
}
