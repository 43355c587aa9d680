package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// GenerationConfig holds the oracle parameters used by one pipeline stage.
type GenerationConfig struct {
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	Concurrency  int
}

// Enricher attaches an oracle-generated summary to each item.
type Enricher struct {
	oracle ports.Oracle
	cfg    GenerationConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewEnricher builds an enricher; a nil oracle makes Enrich a pass-through.
func NewEnricher(oracle ports.Oracle, cfg GenerationConfig, logger *slog.Logger) *Enricher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Enricher{
		oracle: oracle,
		cfg:    cfg,
		logger: orDiscard(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enrich returns a slice with the same length and order as items. An item
// whose oracle call fails is returned unchanged.
func (e *Enricher) Enrich(ctx context.Context, items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	if e == nil || e.oracle == nil || len(items) == 0 {
		return out
	}

	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("enrich item panicked", "source", items[i].Origin, "title", items[i].Title, "panic", fmt.Sprint(r))
				}
			}()
			out[i] = e.enrichOne(ctx, items[i])
		}(i)
	}
	wg.Wait()

	return out
}

func (e *Enricher) enrichOne(ctx context.Context, item domain.Item) domain.Item {
	callCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	summary, err := complete(callCtx, e.oracle, domain.Completion{
		Prompt:       buildEnrichPrompt(item),
		SystemPrompt: e.cfg.SystemPrompt,
		Model:        e.cfg.Model,
		Temperature:  e.cfg.Temperature,
		MaxTokens:    e.cfg.MaxTokens,
	})
	if err != nil {
		e.logger.Error("enrich item", "source", item.Origin, "title", item.Title, "error", err)
		return item
	}
	if summary == "" {
		e.logger.Warn("enrich item returned empty summary", "source", item.Origin, "title", item.Title)
		return item
	}

	enriched := item
	enriched.IndividualSummary = summary
	at := e.now()
	enriched.EnrichedAt = &at
	return enriched
}

func buildEnrichPrompt(item domain.Item) string {
	return fmt.Sprintf(`Title: %s
Description: %s

Provide a concise summary in 2-3 sentences, highlighting:
- Key facts
- Impact or relevance
- Important context`, item.Title, item.Description)
}

// complete calls the oracle and turns a panic inside it into an error.
func complete(ctx context.Context, oracle ports.Oracle, req domain.Completion) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panicked: %v", r)
		}
	}()
	return oracle.Complete(ctx, req)
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
