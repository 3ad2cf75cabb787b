package app

import (
	"context"
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"chiaotu/internal/common"
	"chiaotu/internal/pipeline"
)

// TestApplication provides testing functionality for the application
type TestApplication struct {
	tb       testing.TB
	testApp  *fxtest.App
	options  []fx.Option
	settings *common.ServiceOptions
	service  *pipeline.Service
}

func NewTestApplication(tb testing.TB, opts ...common.Option) *TestApplication {
	settings := &common.ServiceOptions{
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(settings)
	}

	return &TestApplication{
		tb:       tb,
		settings: settings,
		options:  []fx.Option{},
	}
}

func (ta *TestApplication) WithOption(opt fx.Option) *TestApplication {
	ta.options = append(ta.options, opt)
	return ta
}

// Service is available after Start.
func (ta *TestApplication) Service() *pipeline.Service {
	return ta.service
}

func (ta *TestApplication) Start(ctx context.Context) error {
	testOptions := []fx.Option{
		Modules,
		configOption(ta.settings),
		metricsOption(ta.settings),
		fx.Provide(func() *zap.Logger { return ta.settings.Logger }),
		fx.Invoke(registerHooks),
		fx.Populate(&ta.service),
	}

	// Add user-provided options
	testOptions = append(testOptions, ta.options...)

	// Configure test app
	testOptions = append(testOptions,
		fx.StartTimeout(10*time.Second),
		fx.StopTimeout(10*time.Second),
	)

	ta.testApp = fxtest.New(
		ta.tb,
		testOptions...,
	)

	return ta.testApp.Start(ctx)
}

func (ta *TestApplication) Stop(ctx context.Context) error {
	if ta.testApp != nil {
		return ta.testApp.Stop(ctx)
	}
	return nil
}
