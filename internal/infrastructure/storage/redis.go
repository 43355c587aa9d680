package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// RedisStore pushes documents as JSON onto a Redis list named after the collection.
type RedisStore struct {
	mu     sync.RWMutex
	cfg    config.StorageConfig
	opts   *redis.Options
	client *redis.Client
	key    string
	logger *slog.Logger
	sleep  sleepFunc
}

var _ ports.DocumentStore = (*RedisStore)(nil)

// NewRedisStore parses cfg.URI (a redis:// URL or a bare host:port) and pings.
func NewRedisStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*RedisStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("redis: uri is required")
	}
	opts, err := redis.ParseURL(cfg.URI)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URI}
	}
	if t := cfg.ConnectTimeout.Std(); t > 0 {
		opts.DialTimeout = t
	}

	key := cfg.Database + ":" + cfg.Collection
	s := &RedisStore{cfg: cfg, opts: opts, key: key, logger: logger, sleep: sleepContext}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	logger.Info("connected to redis", "key", key)
	return s, nil
}

func (s *RedisStore) connect(ctx context.Context) error {
	return connectWithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryDelay.Std(), s.logger, s.sleep, func(ctx context.Context) error {
		client := redis.NewClient(s.opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("redis ping: %w", err)
		}
		s.mu.Lock()
		s.client = client
		s.mu.Unlock()
		return nil
	})
}

func (s *RedisStore) current() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, fmt.Errorf("redis: not connected")
	}
	return s.client, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	client, err := s.current()
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// Insert assigns a UUID, encodes doc as JSON and LPUSHes it.
func (s *RedisStore) Insert(ctx context.Context, doc domain.Document) (string, error) {
	client, err := s.current()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	record := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		record[k] = v
	}
	record["_id"] = id

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	if err := client.LPush(ctx, s.key, payload).Err(); err != nil {
		return "", fmt.Errorf("redis lpush: %w", err)
	}
	return id, nil
}

// Reconnect replaces the client.
func (s *RedisStore) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	old := s.client
	s.client = nil
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return s.connect(ctx)
}

// Close releases the client.
func (s *RedisStore) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
