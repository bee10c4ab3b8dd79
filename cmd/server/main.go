package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filesmanager/filesmanager/internal/app"
	"github.com/filesmanager/filesmanager/internal/config"
	"github.com/filesmanager/filesmanager/internal/logger"
	"github.com/filesmanager/filesmanager/internal/routes"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	log := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, "api")
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

	handler, limiter := routes.SetupRoutes(app)
	defer limiter.Close()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", "http://localhost:"+cfg.Port)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if cfg.WorkerEmbedded {
		g.Go(func() error {
			return app.NewConsumer(log.With("component", "worker")).Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil {
		slog.Error("server failed", "error", err)
	}
}
