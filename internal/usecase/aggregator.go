package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

const (
	summaryPreamble = "Analyzing all collected news:\n\n"
	summarySuffix   = "Provide a concise summary of all collected news, highlighting the relevant points and identifying trend patterns."
)

var repeatedSpaces = regexp.MustCompile(` {2,}`)

// Aggregator builds the cross-source master summary.
type Aggregator struct {
	oracle ports.Oracle
	cfg    GenerationConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator builds an aggregator. cfg should carry a lower temperature
// than the enrichment stage.
func NewAggregator(oracle ports.Oracle, cfg GenerationConfig, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		oracle: oracle,
		cfg:    cfg,
		logger: orDiscard(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// summaryGroups holds per-origin summaries with origins in first-seen order.
type summaryGroups struct {
	origins   []string
	summaries map[string][]string
}

func (g summaryGroups) total() int {
	n := 0
	for _, s := range g.summaries {
		n += len(s)
	}
	return n
}

// groupSummaries collects item summaries by origin. Items without a summary
// are ignored, so an origin with none never appears.
func groupSummaries(items []domain.Item) summaryGroups {
	g := summaryGroups{summaries: map[string][]string{}}
	for _, item := range items {
		if !item.HasSummary() {
			continue
		}
		if _, seen := g.summaries[item.Origin]; !seen {
			g.origins = append(g.origins, item.Origin)
		}
		g.summaries[item.Origin] = append(g.summaries[item.Origin], item.IndividualSummary)
	}
	return g
}

func buildSummaryPrompt(g summaryGroups) string {
	var b strings.Builder
	b.WriteString(summaryPreamble)
	for _, origin := range g.origins {
		fmt.Fprintf(&b, "Source: %s\n", origin)
		for _, s := range g.summaries[origin] {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	b.WriteString(summarySuffix)
	return b.String()
}

// CleanSummary removes bold markers, turns literal and real line breaks into
// spaces, collapses runs of spaces and trims. Applying it twice is a no-op.
func CleanSummary(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, `\n`, " ")
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	text = repeatedSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Build groups the items, asks the oracle once and returns the summary. Any
// failure yields an error-shaped summary rather than a Go error.
func (a *Aggregator) Build(ctx context.Context, items []domain.Item) domain.MasterSummary {
	if a == nil || a.oracle == nil {
		return a.failure(fmt.Errorf("summarization oracle is not configured"))
	}

	groups := groupSummaries(items)
	if len(groups.origins) == 0 {
		return a.failure(fmt.Errorf("no summarized items to aggregate"))
	}

	callCtx := ctx
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	text, err := complete(callCtx, a.oracle, domain.Completion{
		Prompt:       buildSummaryPrompt(groups),
		SystemPrompt: a.cfg.SystemPrompt,
		Model:        a.cfg.Model,
		Temperature:  a.cfg.Temperature,
		MaxTokens:    a.cfg.MaxTokens,
	})
	if err != nil {
		return a.failure(fmt.Errorf("generate master summary: %w", err))
	}

	summary := domain.MasterSummary{
		Text:        CleanSummary(text),
		SourceCount: len(groups.origins),
		TotalItems:  groups.total(),
		Sources:     groups.origins,
		GeneratedAt: a.now(),
	}
	a.logger.Info("master summary generated",
		"source_count", summary.SourceCount,
		"total_items", summary.TotalItems,
	)
	return summary
}

func (a *Aggregator) failure(err error) domain.MasterSummary {
	now := time.Now().UTC()
	if a != nil {
		now = a.now()
		a.logger.Error("build master summary", "error", err)
	}
	return domain.MasterSummary{Error: err.Error(), GeneratedAt: now}
}
