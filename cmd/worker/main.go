package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filesmanager/filesmanager/internal/app"
	"github.com/filesmanager/filesmanager/internal/config"
	"github.com/filesmanager/filesmanager/internal/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, "worker")
	defer logger.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		panic(err)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	slog.Info("worker starting", "concurrency", cfg.WorkerConcurrency, "env", cfg.AppEnv)

	err = app.NewConsumer(log).Run(ctx)
	if err != nil {
		slog.Error("worker failed", "error", err)
		return
	}

	slog.Info("worker stopped")
}
