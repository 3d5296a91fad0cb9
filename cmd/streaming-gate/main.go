// Package main точка входа шлюза контроля доступа стримингового сервиса.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	streaminggate "github.com/magabrotheeeer/streaming-gate/internal/app/streaming-gate"
	"github.com/magabrotheeeer/streaming-gate/internal/config"
	"github.com/magabrotheeeer/streaming-gate/internal/lib/sl"
)

const envLocal = "local"

func main() {
	// .env нужен только для локального запуска.
	envErr := godotenv.Load()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)
	if envErr != nil {
		logger.Debug(".env not loaded", sl.Err(envErr))
	}

	logger.Info("starting streaming-gate", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := streaminggate.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("streaming-gate stopped gracefully")
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == envLocal {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
