package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"chiaotu/internal/config"
)

type hookParams struct {
	fx.In

	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
	Config    *config.Config
}

func registerHooks(p hookParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting application",
				zap.String("content_root", p.Config.ContentRoot),
				zap.String("output_file", p.Config.OutputFile),
				zap.Int("workers", p.Config.Workers.Count),
				zap.Int("fetch_concurrency", p.Config.Fetch.Concurrency))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("stopping application",
				zap.String("results_dir", p.Config.ResultsDir()))
			return nil
		},
	})
}
