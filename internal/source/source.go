package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"FeedCollector/internal/domain"
)

// Config carries the per-source settings read from configuration.
type Config struct {
	Name   string
	Type   string
	URL    string
	Symbol string
	APIKey string
	Params map[string]string
}

// Source captures a single origin implementation (RSS feed, price API, etc.).
// Fetch returns the raw records or an error; Normalize converts one record.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
	Normalize(record domain.RawRecord, collectedAt time.Time) (domain.Item, error)
}

// Execute fetches and, only when something was fetched, normalizes. A fetch
// failure is logged and yields an empty result.
func Execute(ctx context.Context, src Source, logger *slog.Logger) []domain.Item {
	logger = orDiscard(logger).With("source", src.Name())

	records, err := src.Fetch(ctx)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		return []domain.Item{}
	}
	if len(records) == 0 {
		logger.Warn("no data fetched")
		return []domain.Item{}
	}

	items := Process(src, records, time.Now().UTC(), logger)
	if len(items) == 0 {
		logger.Warn("no data processed", "records", len(records))
		return []domain.Item{}
	}

	logger.Info("source collected", "records", len(records), "items", len(items))
	return items
}

// Process normalizes a batch, dropping records that fail individually.
func Process(src Source, records []domain.RawRecord, collectedAt time.Time, logger *slog.Logger) []domain.Item {
	logger = orDiscard(logger)

	items := make([]domain.Item, 0, len(records))
	for i, record := range records {
		item, err := src.Normalize(record, collectedAt)
		if err != nil {
			logger.Error("normalize record", "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items
}

// Factory builds a source from its configuration.
type Factory func(cfg Config) (Source, error)

// Registry keeps a mapping from source types to their constructors.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a constructor for a source type.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Types lists the registered source types.
func (r *Registry) Types() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Build resolves the constructor for cfg.Type and invokes it.
func (r *Registry) Build(cfg Config) (Source, error) {
	factory, ok := r.factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("source type %s is not registered", cfg.Type)
	}
	src, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("build source %s: %w", cfg.Name, err)
	}
	return src, nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
