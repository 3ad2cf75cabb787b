package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"chiaotu/app"
	"chiaotu/internal/common"
)

func main() {
	env := os.Getenv("APP_ENV")
	logger, err := app.NewLogger(env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	application := app.NewApplication(
		common.WithLogger(logger),
		common.WithEnv(env),
	)
	if err := application.Err(); err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}

	// Cancel the run on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		logger.Fatal("failed to start application", zap.Error(err))
	}

	runErr := application.Run(ctx, os.Args[1:])

	// Stop with timeout
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := application.Stop(stopCtx); err != nil {
		logger.Error("failed to stop application gracefully", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("run failed", zap.Error(runErr))
	}
}
