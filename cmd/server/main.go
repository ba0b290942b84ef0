package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"trustlessid/internal/app"
	"trustlessid/internal/platform/config"
	"trustlessid/internal/platform/logger"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	runErr := a.Run(ctx)
	a.Close(context.WithoutCancel(ctx))
	if runErr != nil {
		log.Error("server stopped with error", "error", runErr)
		os.Exit(1)
	}
	log.Info("server stopped")
}
