package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	canopyhttp "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/adapters/mcp"
)

// MCPOptions contains the configuration for the mcp command.
type MCPOptions struct {
	ConfigPath string
	// Transport is stdio or sse.
	Transport string
	Port      int
	Demos     []string
	LogLevel  string
	LogFormat string
	Debug     bool
}

// ServeMCP exposes the requested demos as Model Context Protocol tools.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	if opts.Transport != "stdio" && opts.Transport != "sse" {
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
	}

	cfg, err := loadConfig(opts.ConfigPath, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	if opts.Transport == "stdio" && cfg.Logging.Format == "auto" {
		// Stdout carries JSON-RPC; logs on stderr are read by tools, not people.
		cfg.Logging.Format = "json"
	}
	logger, err := createLogger(cfg.Logging.Level, cfg.Logging.Format, opts.Debug)
	if err != nil {
		return err
	}

	importSource := cfg.WebModules.ImportSourceBaseURL
	if importSource == "" && cfg.WebModules.Dir != "" {
		importSource, err = canopyhttp.ServeWebModules(ctx, "localhost", cfg.WebModules.Dir, logger)
		if err != nil {
			return fmt.Errorf("serve web modules: %w", err)
		}
	}

	a, err := newApp(ctx, cfg, logger, importSource)
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

	srv := mcp.NewServer(a.manager, mcp.WithLogger(logger))
	switch opts.Transport {
	case "sse":
		logger.Info("starting canopy MCP server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	default:
		logger.Info("starting canopy MCP server (stdio)")
		return srv.ServeStdio()
	}
}
