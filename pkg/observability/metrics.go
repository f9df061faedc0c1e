package observability

import (
	"context"
	"errors"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by lifecycle hooks.
// One Metrics may serve every widget of a process.
type Metrics struct {
	Renders    prometheus.Counter
	Recipients prometheus.Histogram
	Views      prometheus.Gauge
	ViewEvents *prometheus.CounterVec
	SendErrors prometheus.Counter
	Messages   *prometheus.CounterVec
	LoopExits  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_renders_total",
			Help: "Total number of updates merged into widget snapshots",
		}),
		Recipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_render_recipients",
			Help:    "Number of views each update was delivered to",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		Views: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_views_ready",
			Help: "Number of views currently receiving updates",
		}),
		ViewEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_view_events_total",
			Help: "Total number of view lifecycle transitions",
		}, []string{"event"}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_send_errors_total",
			Help: "Total number of failed sends to views",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_messages_total",
			Help: "Total number of inbound messages by outcome",
		}, []string{"outcome"}),
		LoopExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_loop_exits_total",
			Help: "Total number of render-dispatch loops that ended",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Renders, m.Recipients, m.Views, m.ViewEvents, m.SendErrors, m.Messages, m.LoopExits)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			m.Renders.Inc()
			m.Recipients.Observe(float64(e.Recipients))
		},
		OnViewReady: func(ctx context.Context, e *domain.ViewEvent) {
			m.Views.Inc()
			m.ViewEvents.WithLabelValues("ready").Inc()
		},
		OnViewRemoved: func(ctx context.Context, e *domain.ViewEvent) {
			m.Views.Dec()
			m.ViewEvents.WithLabelValues("removed").Inc()
		},
		OnSendError: func(ctx context.Context, e *domain.ViewEvent) {
			m.SendErrors.Inc()
		},
		OnEventScheduled: func(ctx context.Context, e *domain.MessageEvent) {
			m.Messages.WithLabelValues("scheduled").Inc()
		},
		OnEventDropped: func(ctx context.Context, e *domain.MessageEvent) {
			m.Messages.WithLabelValues("dropped").Inc()
		},
		OnMalformed: func(ctx context.Context, e *domain.MessageEvent) {
			m.Messages.WithLabelValues("malformed").Inc()
		},
		OnLoopExit: func(ctx context.Context, e *domain.LoopEvent) {
			result := "ok"
			if e.Err != nil && !errors.Is(e.Err, context.Canceled) {
				result = "error"
			}
			m.LoopExits.WithLabelValues(result).Inc()
		},
	}
}
