package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultQueueSize is the number of outbound messages buffered per websocket view.
const DefaultQueueSize = 64

// DefaultWebModulesRoute is the URL prefix of the web-modules directory.
const DefaultWebModulesRoute = "web-modules"

// Server exposes the widgets of a host.Manager over HTTP and websockets.
type Server struct {
	Manager *host.Manager

	logger       *slog.Logger
	gatherer     prometheus.Gatherer
	modulesDir   string
	modulesRoute string
	queueSize    int
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the metrics in g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithWebModules serves the files in dir under /route/.
func WithWebModules(dir, route string) Option {
	return func(s *Server) {
		s.modulesDir = dir
		s.modulesRoute = strings.Trim(route, "/")
	}
}

// WithQueueSize bounds the outbound queue of each websocket view.
func WithQueueSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWriteTimeout bounds a single websocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// NewHandler creates a new HTTP handler for the widgets in m.
func NewHandler(m *host.Manager, opts ...Option) http.Handler {
	s := &Server{
		Manager:      m,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		queueSize:    DefaultQueueSize,
		writeTimeout: 10 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Views are served from arbitrary notebook origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.GetHealth)
	r.Get("/version", s.GetVersion)
	r.Route("/widgets", func(r chi.Router) {
		r.Get("/", s.ListWidgets)
		r.Get("/{id}", s.GetWidget)
		r.Get("/{id}/model", s.GetModel)
		r.Get("/{id}/ws", s.ServeView)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.modulesDir != "" {
		if s.modulesRoute == "" {
			s.modulesRoute = DefaultWebModulesRoute
		}
		r.Mount("/"+s.modulesRoute, enableCORS(WebModules(s.modulesDir, "/"+s.modulesRoute)))
	}
	return r
}

// WebModules serves the files in dir with the URL prefix stripped.
func WebModules(dir, prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetVersion handles the GET /version request.
func (s *Server) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "canopy",
		"version": strings.TrimSpace(canopy.Version),
	})
}

// ListWidgets handles the GET /widgets request.
func (s *Server) ListWidgets(w http.ResponseWriter, r *http.Request) {
	widgets := s.Manager.Widgets()
	infos := make([]canopy.Info, 0, len(widgets))
	for _, widget := range widgets {
		infos = append(infos, widget.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

// GetWidget handles the GET /widgets/{id} request.
func (s *Server) GetWidget(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widget(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, widget.Info())
}

// GetModel handles the GET /widgets/{id}/model request.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widget(w, r)
	if !ok {
		return
	}
	snap := widget.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"revision": snap.Revision,
		"model":    snap.Model,
	})
}

func (s *Server) widget(w http.ResponseWriter, r *http.Request) (*canopy.Widget, bool) {
	widget, err := s.Manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrWidgetNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		s.logger.Error("widget lookup failed", "err", err)
		return nil, false
	}
	return widget, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
