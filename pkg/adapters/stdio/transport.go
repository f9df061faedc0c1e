package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultViewID is the view ID used when none is configured.
const DefaultViewID domain.ViewID = "stdio"

// ErrQueueFull is returned by Send when the writer has fallen behind.
var ErrQueueFull = errors.New("stdio: outbound queue full")

// Handler receives inbound messages. *canopy.Widget implements it.
type Handler interface {
	Handle(ctx context.Context, raw map[string]any, reply ports.Channel) error
}

// Transport speaks JSON-lines: one inbound message per input line and one envelope per
// output line. It is the single view of the process.
type Transport struct {
	reader  *bufio.Reader
	encoder *json.Encoder
	viewID  domain.ViewID
	queue   chan domain.Envelope
	logger  *slog.Logger
}

// Option configures the Transport.
type Option func(*Transport)

// WithViewID sets the view ID filled into messages that carry none.
func WithViewID(id domain.ViewID) Option {
	return func(t *Transport) {
		t.viewID = id
	}
}

// WithQueueSize bounds the outbound queue.
func WithQueueSize(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.queue = make(chan domain.Envelope, n)
		}
	}
}

// WithLogger sets the transport logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New creates a Transport. A nil reader or writer defaults to Stdin or Stdout.
func New(r io.Reader, w io.Writer, opts ...Option) *Transport {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	t := &Transport{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
		viewID:  DefaultViewID,
		queue:   make(chan domain.Envelope, 64),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ViewID returns the transport's view ID.
func (t *Transport) ViewID() domain.ViewID { return t.viewID }

// Send queues msg for writing. It never blocks.
func (t *Transport) Send(ctx context.Context, msg domain.Envelope) error {
	select {
	case t.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Serve announces the view to h, routes every input line to it and writes queued
// envelopes until the input ends or ctx is done. The view is removed on return and
// envelopes still queued at that point are written out.
func (t *Transport) Serve(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)

	writeErr := make(chan error, 1)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := t.writeLoop(ctx); err != nil {
			writeErr <- err
		}
	}()
	defer func() {
		cancel()
		<-writerDone
		t.flush()
	}()

	if err := h.Handle(ctx, t.message(domain.MessageClientReady), t); err != nil {
		return fmt.Errorf("stdio: ready: %w", err)
	}
	defer func() {
		_ = h.Handle(context.WithoutCancel(ctx), t.message(domain.MessageClientRemoved), t)
	}()

	lines, readErr := t.readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-writeErr:
			return fmt.Errorf("stdio: write: %w", err)
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("stdio: read: %w", err)
		case line := <-lines:
			raw, err := t.decode(line)
			if err != nil {
				t.logger.Warn("dropping input line", "err", err, "size", len(line))
				continue
			}
			if raw == nil {
				continue
			}
			if err := h.Handle(ctx, raw, t); err != nil {
				t.logger.Warn("message not handled", "err", err)
			}
		}
	}
}

func (t *Transport) message(kind string) map[string]any {
	return map[string]any{"type": kind, "viewId": string(t.viewID)}
}

// decode parses one line. Blank lines yield a nil message.
func (t *Transport) decode(line string) (map[string]any, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if !hasViewID(raw) {
		raw["viewId"] = string(t.viewID)
	}
	return raw, nil
}

// hasViewID reports whether the line names a view. Numeric ids count.
func hasViewID(raw map[string]any) bool {
	for k, v := range raw {
		if !strings.EqualFold(k, "viewId") {
			continue
		}
		switch id := v.(type) {
		case nil:
		case string:
			if id != "" {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// readLines reads in the background so that Serve can honour cancellation.
func (t *Transport) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			text, err := t.reader.ReadString('\n')
			if text != "" {
				select {
				case lines <- text:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()
	return lines, errs
}

func (t *Transport) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-t.queue:
			if err := t.encoder.Encode(msg); err != nil {
				return err
			}
		}
	}
}

// flush writes whatever is still queued. It runs after writeLoop has returned.
func (t *Transport) flush() {
	for {
		select {
		case msg := <-t.queue:
			if err := t.encoder.Encode(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
