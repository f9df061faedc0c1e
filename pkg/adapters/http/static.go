package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Port range searched by ServeWebModules.
const (
	DefaultPortMin = 8000
	DefaultPortMax = 9000
)

// FindAvailablePort returns the first port in [min, max) that host can bind.
func FindAvailablePort(host string, min, max int) (int, error) {
	l, port, err := listenInRange(host, min, max)
	if err != nil {
		return 0, err
	}
	_ = l.Close()
	return port, nil
}

func listenInRange(host string, min, max int) (net.Listener, int, error) {
	for port := min; port < max; port++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return l, port, nil
		}
	}
	return nil, 0, fmt.Errorf("host %q has no available port in range %d-%d", host, min, max)
}

// ServeWebModules starts a standalone static file server for dir on the first free port
// of host and returns its base URL. Responses allow any origin. The server stops when ctx
// is done.
func ServeWebModules(ctx context.Context, host, dir string, logger *slog.Logger) (string, error) {
	l, port, err := listenInRange(host, DefaultPortMin, DefaultPortMax)
	if err != nil {
		return "", err
	}

	srv := &http.Server{
		Handler:           logRequests(enableCORS(http.FileServer(http.Dir(dir))), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web modules server failed", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	base := fmt.Sprintf("http://%s/", net.JoinHostPort(host, strconv.Itoa(port)))
	logger.Debug("serving web modules via local static file server", "url", base, "dir", dir)
	return base, nil
}

func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("web module request", "remote", r.RemoteAddr, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
