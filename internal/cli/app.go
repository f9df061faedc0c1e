package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is the wiring shared by the serve and mcp commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	manager  *host.Manager
	registry *prometheus.Registry
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, importSource string) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}

	hooks := observability.LogHooks(logger)
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hooks = domain.ChainHooks(observability.NewMetrics(a.registry).Hooks(), hooks)
	}

	opts := []host.Option{
		host.WithLogger(logger),
		host.WithStore(store),
		host.WithHooks(hooks),
	}
	if importSource != "" {
		opts = append(opts, host.WithImportSourceBaseURL(importSource))
	}
	a.manager = host.NewManager(opts...)
	return a, nil
}

// newStore picks redis when an address is configured and memory otherwise, wrapped with
// the configured masking and encryption.
func (a *app) newStore(ctx context.Context) (ports.SnapshotStore, error) {
	var store ports.SnapshotStore = memory.NewStore()
	if a.cfg.Redis.Addr != "" {
		rs, err := openRedis(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		a.logger.Info("snapshots mirrored to redis", "addr", a.cfg.Redis.Addr)
		store = rs
	}
	return protectStore(store, a.cfg.Redis)
}

// protectStore applies the masking and encryption middleware rc asks for.
func protectStore(store ports.SnapshotStore, rc config.RedisConfig) (ports.SnapshotStore, error) {
	var mws []middleware.Middleware
	if len(rc.MaskKeys) > 0 {
		mw, err := middleware.NewPIIMiddleware(rc.MaskKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, err := rc.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

func openRedis(ctx context.Context, rc config.RedisConfig) (*redis.Store, error) {
	var opts []redis.Option
	if rc.Prefix != "" {
		opts = append(opts, redis.WithPrefix(rc.Prefix))
	}
	if rc.TTL > 0 {
		opts = append(opts, redis.WithTTL(rc.TTL))
	}
	store := redis.New(rc.Addr, rc.Password, rc.DB, opts...)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
	}
	return store, nil
}

// mount starts one widget per demo name. The widget ID is the demo name.
func (a *app) mount(ctx context.Context, names []string) error {
	for _, name := range names {
		l, err := NewDemo(name, a.logger)
		if err != nil {
			return err
		}
		if _, err := a.manager.Mount(ctx, l, canopy.WithID(name), canopy.WithExitTimeout(a.cfg.Views.ExitTimeout)); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() error {
	errs := []error{a.manager.Close()}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// importSourceURL returns the base URL views load web modules from, derived from the
// configuration and the HTTP listen address. It is empty when nothing serves them.
func importSourceURL(cfg *config.Config) string {
	if cfg.WebModules.ImportSourceBaseURL != "" {
		return cfg.WebModules.ImportSourceBaseURL
	}
	if cfg.WebModules.Dir == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(cfg.Server.Addr)
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/%s/", net.JoinHostPort(host, port), strings.Trim(cfg.WebModules.Route, "/"))
}
