package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrViewBackpressure is returned by a view whose outbound queue is full.
	// The message is dropped; the view stays registered.
	ErrViewBackpressure = errors.New("view outbound queue full")
	// ErrViewClosed is returned by a view whose connection has gone away.
	ErrViewClosed = errors.New("view connection closed")
)

// wsView is the ports.Channel of one websocket connection.
// Send only enqueues; a dedicated goroutine owns all writes to the connection.
type wsView struct {
	id      domain.ViewID
	conn    *websocket.Conn
	queue   chan domain.Envelope
	done    chan struct{}
	once    sync.Once
	timeout time.Duration
	logger  *slog.Logger
}

func newWSView(conn *websocket.Conn, size int, timeout time.Duration, logger *slog.Logger) *wsView {
	return &wsView{
		id:      domain.ViewID(uuid.NewString()),
		conn:    conn,
		queue:   make(chan domain.Envelope, size),
		done:    make(chan struct{}),
		timeout: timeout,
		logger:  logger,
	}
}

func (v *wsView) Send(ctx context.Context, msg domain.Envelope) error {
	select {
	case <-v.done:
		return ErrViewClosed
	default:
	}
	select {
	case v.queue <- msg:
		return nil
	case <-v.done:
		return ErrViewClosed
	default:
		return ErrViewBackpressure
	}
}

func (v *wsView) writeLoop() {
	defer v.close()
	for {
		select {
		case <-v.done:
			return
		case msg := <-v.queue:
			_ = v.conn.SetWriteDeadline(time.Now().Add(v.timeout))
			if err := v.conn.WriteJSON(msg); err != nil {
				v.logger.Warn("websocket write failed", "err", err)
				return
			}
		}
	}
}

func (v *wsView) close() {
	v.once.Do(func() {
		close(v.done)
		_ = v.conn.Close()
	})
}

// ServeView handles the GET /widgets/{id}/ws request.
//
// Each connection is one view with a server-assigned ID. Inbound JSON messages are routed
// to the widget with that ID injected; the connection going away removes the view.
func (s *Server) ServeView(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widget(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade", "err", err)
		return
	}

	logger := s.logger.With("widget_id", widget.ID())
	view := newWSView(conn, s.queueSize, s.writeTimeout, logger)
	logger = logger.With("view_id", view.id)
	go view.writeLoop()
	defer view.close()

	ctx := r.Context()
	logger.Info("view connected")
	defer func() {
		removed := map[string]any{"type": domain.MessageClientRemoved, "viewId": string(view.id)}
		if err := widget.Handle(context.WithoutCancel(ctx), removed, view); err != nil {
			logger.Debug("client-removed not routed", "err", err)
		}
		logger.Info("view disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", "err", err)
			}
			return
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			logger.Warn("dropping non-JSON message", "err", err, "size", len(data))
			continue
		}
		raw["viewId"] = string(view.id)

		if err := widget.Handle(ctx, raw, view); err != nil {
			logger.Warn("message not handled", "err", err)
		}
	}
}
