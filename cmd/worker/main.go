package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tenderbharat/docvector/internal/app"
	"github.com/tenderbharat/docvector/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	err = a.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("worker stopping")
	default:
		logger.Error("worker stopped with error", "error", err)
	}

	// Give queued embedding batches a bounded window to drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	a.Shutdown(shutdownCtx)
}
