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

	"qrupees/internal/app/di"
	"qrupees/internal/app/router"
	authhandler "qrupees/internal/feature/auth/transport/handler"
	markethandler "qrupees/internal/feature/market/transport/handler"
	"qrupees/internal/platform/config"
	"qrupees/internal/platform/logger"
)

func main() {
	path := os.Getenv("QRUPEES_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := di.New(ctx, cfg, di.Options{})
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close resources", "error", err)
		}
	}()

	// ルータ生成
	r := router.NewRouter(router.Deps{
		Auth:     authhandler.NewAuthHandler(app.Auth, app.Admin),
		Market:   markethandler.NewMarketHandler(app.Market),
		Tokens:   app.Tokens,
		Sessions: app.Sessions,
		Metrics:  app.Metrics.Handler(),
		Storage:  app.Records.Backend,

		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr, "storage", app.Records.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
