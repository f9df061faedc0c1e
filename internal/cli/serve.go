package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/canopy/internal/config"
	canopyhttp "github.com/aretw0/canopy/pkg/adapters/http"
)

// ServeOptions contains the configuration for the serve command.
type ServeOptions struct {
	ConfigPath string
	// Addr overrides server.addr when set.
	Addr string
	// WebModulesDir overrides web_modules.dir when set.
	WebModulesDir string
	Metrics       bool
	Demos         []string
	LogLevel      string
	LogFormat     string
	Debug         bool
}

// loadConfig reads the config file and applies the flag overrides shared by all commands.
func loadConfig(path, level, format string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if format != "" {
		cfg.Logging.Format = format
	}
	return cfg, nil
}

// Serve mounts the requested demos and serves them over HTTP until ctx is done.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := loadConfig(opts.ConfigPath, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.WebModulesDir != "" {
		cfg.WebModules.Dir = opts.WebModulesDir
	}
	if opts.Metrics {
		cfg.Metrics.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := createLogger(cfg.Logging.Level, cfg.Logging.Format, opts.Debug)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger, importSourceURL(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Error("shutdown incomplete", "err", err)
		}
	}()

	if err := a.mount(ctx, opts.Demos); err != nil {
		return err
	}

	logger.Info("widgets mounted", "ids", strings.Join(a.manager.List(), ","))
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: canopyhttp.NewHandler(a.manager, a.handlerOptions()...),
	}
	return runServer(ctx, srv, cfg, logger)
}

func (a *app) handlerOptions() []canopyhttp.Option {
	opts := []canopyhttp.Option{
		canopyhttp.WithLogger(a.logger),
		canopyhttp.WithQueueSize(a.cfg.Views.QueueSize),
		canopyhttp.WithWriteTimeout(a.cfg.Views.WriteTimeout),
	}
	if a.registry != nil {
		opts = append(opts, canopyhttp.WithMetrics(a.registry))
	}
	if a.cfg.WebModules.Dir != "" {
		opts = append(opts, canopyhttp.WithWebModules(a.cfg.WebModules.Dir, a.cfg.WebModules.Route))
	}
	return opts
}

// runServer blocks until srv fails or ctx is done, then shuts it down gracefully.
func runServer(ctx context.Context, srv *http.Server, cfg *config.Config, logger *slog.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("canopy server listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", "err", err)
		return srv.Close()
	}
	return nil
}
