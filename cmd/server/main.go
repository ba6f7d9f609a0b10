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

	"github.com/trakapp/trak/internal/app"
	"github.com/trakapp/trak/internal/config"
	"github.com/trakapp/trak/internal/logger"
	"github.com/trakapp/trak/internal/middleware"
	"github.com/trakapp/trak/internal/routes"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		Development: cfg.IsDevelopment(),
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.AppEnv,
	})
	defer logger.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		logger.Flush()
		os.Exit(1)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	authLimiter := middleware.NewRateLimiter(10, 15*time.Minute)
	go authLimiter.RunSweeper(5*time.Minute, ctx.Done())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRoutes(app, authLimiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"user_store", cfg.UserStore,
		"db_driver", cfg.DBDriver,
		"url", cfg.AppURL,
	)

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		return
	}

	slog.Info("server stopped")
}
