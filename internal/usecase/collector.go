package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
	"FeedCollector/internal/source"
)

// CollectorDeps wires sources and driven adapters into the orchestration.
type CollectorDeps struct {
	Sources     []source.Source
	Enricher    *Enricher
	Aggregator  *Aggregator
	Persister   ports.SummaryPersister
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Concurrency int
	RunTimeout  time.Duration
}

// Collector drives every source through fetch, normalize, enrich, aggregate
// and persist.
type Collector struct {
	sources     []source.Source
	enricher    *Enricher
	aggregator  *Aggregator
	persister   ports.SummaryPersister
	notifier    ports.Notifier
	logger      *slog.Logger
	concurrency int
	runTimeout  time.Duration
	now         func() time.Time
}

// SourceReport describes one source's contribution to a run.
type SourceReport struct {
	Name       string
	Items      int
	Summarized int
	Duration   time.Duration
	Panicked   bool
}

// RunResult is everything a single run produced.
type RunResult struct {
	RunID    string
	Envelope domain.CollectionEnvelope
	// Summary is nil when no aggregator is configured; otherwise it may be
	// error-shaped, see MasterSummary.Failed.
	Summary *domain.MasterSummary
	// Items holds every enriched item in source order, preceded by the
	// master summary item when the summary is valid.
	Items     []domain.Item
	Persisted bool
	Sources   []SourceReport
}

// NewCollector constructs the orchestration component.
func NewCollector(deps CollectorDeps) *Collector {
	concurrency := deps.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		sources:     deps.Sources,
		enricher:    deps.Enricher,
		aggregator:  deps.Aggregator,
		persister:   deps.Persister,
		notifier:    deps.Notifier,
		logger:      orDiscard(deps.Logger),
		concurrency: concurrency,
		runTimeout:  deps.RunTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one collection run. It always returns an envelope carrying
// the run timestamp and one entry per source, whatever failed downstream.
func (c *Collector) Run(ctx context.Context) RunResult {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	started := c.now()

	if c.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.runTimeout)
		defer cancel()
	}

	logger.Info("collection run started", "sources", len(c.sources))

	perSource, reports := c.collectAll(ctx, logger)

	result := RunResult{
		RunID:    runID,
		Envelope: domain.NewEnvelope(started),
		Sources:  reports,
	}
	var all []domain.Item
	for i, src := range c.sources {
		result.Envelope.Data[src.Name()] = perSource[i]
		all = append(all, perSource[i]...)
	}

	// Every source worker has finished here, so aggregation sees the full set.
	if c.aggregator != nil {
		summary := c.aggregator.Build(ctx, all)
		result.Summary = &summary

		if summary.Failed() {
			logger.Warn("master summary unavailable, skipping persistence", "error", summary.Error)
		} else {
			result.Envelope.MasterSummary = &summary
			result.Persisted = c.persist(ctx, summary, logger)
			all = append([]domain.Item{summary.Item()}, all...)
			c.notify(ctx, summary, logger)
		}
	}

	if all == nil {
		all = []domain.Item{}
	}
	result.Items = all

	logger.Info("collection run finished",
		"items", countItems(perSource),
		"persisted", result.Persisted,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
	return result
}

func (c *Collector) collectAll(ctx context.Context, logger *slog.Logger) ([][]domain.Item, []SourceReport) {
	results := make([][]domain.Item, len(c.sources))
	reports := make([]SourceReport, len(c.sources))

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for i, src := range c.sources {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, src source.Source) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], reports[i] = c.collectSource(ctx, src, logger)
		}(i, src)
	}
	wg.Wait()

	return results, reports
}

// collectSource runs one source and enriches its items. A panic inside the
// source is recovered and the source contributes nothing.
func (c *Collector) collectSource(ctx context.Context, src source.Source, logger *slog.Logger) (items []domain.Item, report SourceReport) {
	name := src.Name()
	started := time.Now()
	report.Name = name

	defer func() {
		if r := recover(); r != nil {
			logger.Error("source panicked", "source", name, "panic", fmt.Sprint(r))
			items = []domain.Item{}
			report = SourceReport{Name: name, Duration: time.Since(started), Panicked: true}
		}
	}()

	items = source.Execute(ctx, src, logger)
	if c.enricher != nil && len(items) > 0 {
		items = c.enricher.Enrich(ctx, items)
	}

	report.Items = len(items)
	for _, item := range items {
		if item.HasSummary() {
			report.Summarized++
		}
	}
	report.Duration = time.Since(started)
	return items, report
}

func (c *Collector) persist(ctx context.Context, summary domain.MasterSummary, logger *slog.Logger) bool {
	if c.persister == nil {
		logger.Warn("no persistence configured, master summary not stored")
		return false
	}
	if !c.persister.Save(ctx, summary.Document()) {
		logger.Error("master summary was not persisted")
		return false
	}
	return true
}

func (c *Collector) notify(ctx context.Context, summary domain.MasterSummary, logger *slog.Logger) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.PublishDigest(ctx, FormatDigest(summary)); err != nil {
		logger.Error("publish digest", "error", err)
	}
}

// FormatDigest renders the summary as a short plain-text message.
func FormatDigest(summary domain.MasterSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Master Summary (%d sources, %d items)\n", summary.SourceCount, summary.TotalItems)
	if len(summary.Sources) > 0 {
		fmt.Fprintf(&b, "Sources: %s\n", strings.Join(summary.Sources, ", "))
	}
	b.WriteString("\n")
	b.WriteString(summary.Text)
	return b.String()
}

func countItems(perSource [][]domain.Item) int {
	n := 0
	for _, items := range perSource {
		n += len(items)
	}
	return n
}

// Output selects the artifact payload for mode.
func (r RunResult) Output(mode domain.OutputMode) any {
	switch mode {
	case domain.OutputSummary:
		if r.Summary == nil {
			return domain.MasterSummary{Error: "no master summary was built", GeneratedAt: r.Envelope.Timestamp}
		}
		return r.Summary
	case domain.OutputItems:
		return r.Items
	default:
		return r.Envelope
	}
}
