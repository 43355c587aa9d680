package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// Persister writes documents with liveness checks and bounded retry.
type Persister struct {
	store      ports.DocumentStore
	maxRetries int
	delay      time.Duration
	logger     *slog.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error

	// mu serializes attempts so two callers never reconnect the same store at once.
	mu sync.Mutex
}

var _ ports.SummaryPersister = (*Persister)(nil)

// NewPersister wraps store; maxRetries below 1 is treated as 1.
func NewPersister(store ports.DocumentStore, maxRetries int, delay time.Duration, logger *slog.Logger) *Persister {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Persister{
		store:      store,
		maxRetries: maxRetries,
		delay:      delay,
		logger:     orDiscard(logger),
		now:        func() time.Time { return time.Now().UTC() },
		sleep:      sleepContext,
	}
}

// Save stamps and inserts doc, retrying any failure up to the attempt
// budget. It never returns an error; false means the document was not stored.
func (p *Persister) Save(ctx context.Context, doc domain.Document) bool {
	if len(doc) == 0 {
		p.logger.Warn("refusing to save empty document")
		return false
	}
	if p.store == nil {
		p.logger.Warn("no document store configured")
		return false
	}

	working := make(domain.Document, len(doc)+2)
	for k, v := range doc {
		working[k] = v
	}
	if _, ok := working["created_at"]; !ok {
		working["created_at"] = p.now()
	}

	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		id, err := p.attempt(ctx, working)
		if err == nil {
			p.logger.Info("document saved", "id", id, "attempt", attempt)
			return true
		}

		p.logger.Error("save attempt failed", "attempt", attempt, "max_attempts", p.maxRetries, "error", err)
		if attempt == p.maxRetries {
			break
		}
		if err := p.sleep(ctx, p.delay); err != nil {
			p.logger.Error("save aborted", "error", err)
			return false
		}
	}
	return false
}

func (p *Persister) attempt(ctx context.Context, doc domain.Document) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Ping(ctx); err != nil {
		p.logger.Warn("store not reachable, reconnecting", "error", err)
		if err := p.store.Reconnect(ctx); err != nil {
			return "", fmt.Errorf("reconnect: %w", err)
		}
	}

	doc["updated_at"] = p.now()
	serialized, err := serializeDocument(doc)
	if err != nil {
		return "", err
	}

	id, err := p.store.Insert(ctx, serialized)
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// serializeDocument round-trips doc through JSON so every value is a plain
// string, number, bool, list or map. Timestamps become RFC 3339 strings.
func serializeDocument(doc domain.Document) (domain.Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	var out domain.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return out, nil
}

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
