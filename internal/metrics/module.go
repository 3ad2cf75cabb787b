package metrics

import (
	"context"

	"go.uber.org/fx"

	"chiaotu/internal/config"
	"chiaotu/internal/domain"
)

// Module provides the metrics collector
var Module = fx.Options(
	fx.Provide(NewCollector),
	fx.Provide(func(c *Collector) domain.MetricsCollector { return c }),
	fx.Invoke(registerHooks),
)

// The run's metrics are written once, when the application stops.
func registerHooks(lc fx.Lifecycle, cfg *config.Config, c *Collector) {
	if cfg.MetricsFile == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.WriteTextfile(cfg.MetricsFile)
		},
	})
}
