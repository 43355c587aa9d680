package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"FeedCollector/internal/config"
	"FeedCollector/internal/ports"
)

// Open connects the document store selected by cfg.Driver. It returns
// (nil, nil) when no driver is configured.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ports.DocumentStore, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "storage", "driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverNone:
		return nil, nil
	case config.DriverMongoDB:
		return NewMongoStore(ctx, cfg, logger)
	case config.DriverPostgres, config.DriverSQLite:
		return NewSQLStore(ctx, cfg, logger)
	case config.DriverRedis:
		return NewRedisStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

const defaultConnectTimeout = 5 * time.Second

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connectWithRetry runs connect up to attempts times, waiting delay between
// failures. The last error is returned when every attempt fails.
func connectWithRetry(ctx context.Context, attempts int, delay time.Duration, logger *slog.Logger, sleep sleepFunc, connect func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = connect(ctx)
		if lastErr == nil {
			return nil
		}
		logger.Warn("connect attempt failed", "attempt", attempt, "max_attempts", attempts, "error", lastErr)
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}
	return fmt.Errorf("connect after %d attempts: %w", attempts, lastErr)
}
