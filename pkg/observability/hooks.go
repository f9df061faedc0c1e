package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event. Renders and scheduled events
// are logged at debug level; failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	logger = logger.With("component", "lifecycle")
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			logger.DebugContext(ctx, "render", "path", e.Path, "revision", e.Revision, "recipients", e.Recipients)
		},
		OnViewReady: func(ctx context.Context, e *domain.ViewEvent) {
			logger.InfoContext(ctx, "view_ready", "view_id", e.ViewID)
		},
		OnViewRemoved: func(ctx context.Context, e *domain.ViewEvent) {
			logger.InfoContext(ctx, "view_removed", "view_id", e.ViewID)
		},
		OnSendError: func(ctx context.Context, e *domain.ViewEvent) {
			logger.WarnContext(ctx, "send_error", "view_id", e.ViewID, "err", e.Err)
		},
		OnEventScheduled: func(ctx context.Context, e *domain.MessageEvent) {
			logger.DebugContext(ctx, "event_scheduled", "view_id", e.ViewID, "target", e.Target)
		},
		OnEventDropped: func(ctx context.Context, e *domain.MessageEvent) {
			logger.WarnContext(ctx, "event_dropped", "view_id", e.ViewID, "target", e.Target, "err", e.Err)
		},
		OnMalformed: func(ctx context.Context, e *domain.MessageEvent) {
			logger.WarnContext(ctx, "malformed_message", "err", e.Err)
		},
		OnLoopExit: func(ctx context.Context, e *domain.LoopEvent) {
			if e.Err != nil {
				logger.InfoContext(ctx, "loop_exit", "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "loop_exit")
		},
	}
}
