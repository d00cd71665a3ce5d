package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/runlog"
	"annual-report-analyzer/internal/store"
	"annual-report-analyzer/internal/trace"
)

const serviceName = "annual-report-analyzer"

// initializeSystem loads .env and sets up the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(serviceName); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig reads path, falling back to built-in defaults when the file is absent
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn(ctx, "Config file not found, using defaults", "path", path)
		return store.Default(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs gzips run logs past the configured retention
func compressOldLogs(ctx context.Context, cfg *store.Config) {
	if err := runlog.CompressOlder(cfg.RunLog.Dir, cfg.RunLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old run logs", "error", err)
	}
}
