package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"chiaotu/internal/common"
	"chiaotu/internal/config"
	"chiaotu/internal/domain"
	"chiaotu/internal/pipeline"
)

type Application struct {
	app     *fx.App
	logger  *zap.Logger
	service *pipeline.Service
}

func NewApplication(opts ...common.Option) *Application {
	options := &common.ServiceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Ensure required options are set
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	logger := options.Logger
	if options.Env != "" {
		logger = logger.With(zap.String("env", options.Env))
	}

	app := &Application{
		logger: logger,
	}

	app.app = fx.New(
		Modules,
		configOption(options),
		metricsOption(options),

		// Provide base dependencies
		fx.Provide(
			func() *zap.Logger { return logger },
		),

		// Configure fx
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),

		// Set timeouts
		fx.StopTimeout(30*time.Second),
		fx.StartTimeout(30*time.Second),

		// Register lifecycle hooks
		fx.Invoke(registerHooks),
		fx.Populate(&app.service),
	)

	return app
}

func configOption(options *common.ServiceOptions) fx.Option {
	if options.Config != nil {
		return fx.Supply(options.Config)
	}
	return config.Module
}

func metricsOption(options *common.ServiceOptions) fx.Option {
	if options.Metrics == nil {
		return fx.Options()
	}
	return fx.Decorate(func(domain.MetricsCollector) domain.MetricsCollector {
		return options.Metrics
	})
}

// Err reports a failure to build the dependency graph.
func (a *Application) Err() error {
	return a.app.Err()
}

func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// Run executes one mode: with a URL list file it downloads subscriptions,
// without arguments it merges the cache.
func (a *Application) Run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.service.Download(ctx, args[0])
	}

	path, err := a.service.Merge(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("result written", zap.String("path", path))
	return nil
}
