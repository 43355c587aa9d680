package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// MongoStore writes documents into a single MongoDB collection.
type MongoStore struct {
	mu     sync.RWMutex
	cfg    config.StorageConfig
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
	sleep  sleepFunc
}

var _ ports.DocumentStore = (*MongoStore)(nil)

// NewMongoStore connects and pings the server, retrying per cfg.MaxRetries.
func NewMongoStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb: uri is required")
	}
	s := &MongoStore{cfg: cfg, logger: logger, sleep: sleepContext}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	logger.Info("connected to mongodb", "database", cfg.Database, "collection", cfg.Collection)
	return s, nil
}

func (s *MongoStore) connect(ctx context.Context) error {
	return connectWithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryDelay.Std(), s.logger, s.sleep, func(ctx context.Context) error {
		timeout := s.cfg.ConnectTimeout.Std()
		if timeout <= 0 {
			timeout = defaultConnectTimeout
		}
		opts := options.Client().
			ApplyURI(s.cfg.URI).
			SetServerSelectionTimeout(timeout).
			SetConnectTimeout(timeout).
			SetMaxPoolSize(10).
			SetRetryWrites(true)

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return fmt.Errorf("mongodb connect: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return fmt.Errorf("mongodb ping: %w", err)
		}

		s.mu.Lock()
		s.client = client
		s.coll = client.Database(s.cfg.Database).Collection(s.cfg.Collection)
		s.mu.Unlock()
		return nil
	})
}

// Ping checks the connection against the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return fmt.Errorf("mongodb: not connected")
	}
	return client.Ping(ctx, readpref.Primary())
}

// Insert stores doc and returns the generated ObjectID in hex.
func (s *MongoStore) Insert(ctx context.Context, doc domain.Document) (string, error) {
	s.mu.RLock()
	coll := s.coll
	s.mu.RUnlock()
	if coll == nil {
		return "", fmt.Errorf("mongodb: not connected")
	}

	res, err := coll.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", fmt.Errorf("mongodb insert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// Reconnect drops the current client and dials again.
func (s *MongoStore) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	old := s.client
	s.client, s.coll = nil, nil
	s.mu.Unlock()

	if old != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = old.Disconnect(disconnectCtx)
		cancel()
	}
	return s.connect(ctx)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client, s.coll = nil, nil
	return err
}
