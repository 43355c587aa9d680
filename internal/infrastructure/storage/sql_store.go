package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// SQLStore persists documents as JSON payload rows in Postgres or SQLite.
type SQLStore struct {
	mu      sync.RWMutex
	cfg     config.StorageConfig
	driver  string
	table   string
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
	sleep   sleepFunc
}

var _ ports.DocumentStore = (*SQLStore)(nil)

// NewSQLStore opens the database, pings it and creates the table if needed.
func NewSQLStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*SQLStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%s: uri is required", cfg.Driver)
	}
	table := cfg.Collection
	if !validIdentifier(table) {
		return nil, fmt.Errorf("%s: invalid table name %q", cfg.Driver, table)
	}

	s := &SQLStore{
		cfg:    cfg,
		table:  table,
		logger: logger,
		sleep:  sleepContext,
	}
	switch cfg.Driver {
	case config.DriverPostgres:
		s.driver = "postgres"
		s.builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	case config.DriverSQLite:
		s.driver = "sqlite"
		s.builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	default:
		return nil, fmt.Errorf("sql store: unsupported driver %q", cfg.Driver)
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	logger.Info("connected to sql store", "table", table)
	return s, nil
}

func (s *SQLStore) connect(ctx context.Context) error {
	return connectWithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryDelay.Std(), s.logger, s.sleep, func(ctx context.Context) error {
		db, err := sql.Open(s.driver, s.cfg.URI)
		if err != nil {
			return fmt.Errorf("open %s: %w", s.driver, err)
		}
		if s.driver == "sqlite" {
			db.SetMaxOpenConns(1)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("ping %s: %w", s.driver, err)
		}
		s.mu.Lock()
		s.db = db
		s.mu.Unlock()
		return nil
	})
}

// EnsureSchema creates the documents table.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	db, err := s.current()
	if err != nil {
		return err
	}

	payloadType := "TEXT"
	if s.driver == "postgres" {
		payloadType = "JSONB"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    payload %s NOT NULL,
    inserted_at TIMESTAMP NOT NULL
)`, s.table, payloadType)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) current() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("%s: not connected", s.driver)
	}
	return s.db, nil
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	db, err := s.current()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Insert writes doc as a JSON payload under a fresh UUID.
func (s *SQLStore) Insert(ctx context.Context, doc domain.Document) (string, error) {
	db, err := s.current()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.NewString()
	query, args, err := s.builder.
		Insert(s.table).
		Columns("id", "payload", "inserted_at").
		Values(id, string(payload), time.Now().UTC()).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// Count returns the number of stored documents.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	db, err := s.current()
	if err != nil {
		return 0, err
	}
	query, args, err := s.builder.Select("COUNT(*)").From(s.table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Reconnect closes the pool and opens a new one.
func (s *SQLStore) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	old := s.db
	s.db = nil
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return s.connect(ctx)
}

// Close releases the pool.
func (s *SQLStore) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
