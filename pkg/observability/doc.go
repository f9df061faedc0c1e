/*
Package observability turns widget lifecycle hooks into Prometheus metrics and structured
log lines.

# Key Components

  - Metrics: counters, a gauge and a histogram fed by domain.LifecycleHooks.
  - LogHooks: hooks that log every lifecycle event through slog.

# Usage

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.ChainHooks(metrics.Hooks(), observability.LogHooks(logger))
	w, err := canopy.New(layout, canopy.WithHooks(hooks))
*/
package observability
