package domain

import (
	"fmt"
	"strings"
	"time"
)

// MasterSummary is the cross-source synthesis built once per run. A failed
// build carries only Error and GeneratedAt.
type MasterSummary struct {
	Text        string    `json:"master_summary,omitempty"`
	SourceCount int       `json:"source_count,omitempty"`
	TotalItems  int       `json:"total_items,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Error       string    `json:"error,omitempty"`
}

// Failed reports whether the summary is an error record.
func (m MasterSummary) Failed() bool {
	return m.Error != ""
}

// Item converts the summary into the synthetic item placed ahead of all
// collected items.
func (m MasterSummary) Item() Item {
	sources := append([]string(nil), m.Sources...)
	return Item{
		Kind:        KindMasterSummary,
		Origin:      AllSources,
		Title:       "Master Summary",
		Description: m.Text,
		PubDate:     m.GeneratedAt.Format(time.RFC3339),
		CollectedAt: m.GeneratedAt,
		SummaryStats: &SummaryStats{
			SourceCount: m.SourceCount,
			TotalItems:  m.TotalItems,
			Sources:     sources,
		},
	}
}

// Document renders the summary as a store document.
func (m MasterSummary) Document() Document {
	if m.Failed() {
		return Document{
			"error":        m.Error,
			"generated_at": m.GeneratedAt,
		}
	}

	sources := make([]any, 0, len(m.Sources))
	for _, s := range m.Sources {
		sources = append(sources, s)
	}
	return Document{
		"master_summary": m.Text,
		"source_count":   m.SourceCount,
		"total_items":    m.TotalItems,
		"sources":        sources,
		"generated_at":   m.GeneratedAt,
	}
}

// Document is a schemaless record handed to a document store.
type Document map[string]any

// CollectionEnvelope is the output of one collection run.
type CollectionEnvelope struct {
	Timestamp     time.Time         `json:"timestamp"`
	Data          map[string][]Item `json:"data"`
	MasterSummary *MasterSummary    `json:"master_summary,omitempty"`
}

// NewEnvelope returns an envelope with an initialized data map.
func NewEnvelope(ts time.Time) CollectionEnvelope {
	return CollectionEnvelope{Timestamp: ts, Data: map[string][]Item{}}
}

// Completion is a single request to the summarization oracle.
type Completion struct {
	Prompt       string
	SystemPrompt string
	Model        string
	Temperature  float64
	MaxTokens    int
}

// OutputMode selects what a run writes to its file artifact.
type OutputMode string

const (
	// OutputEnvelope writes the full CollectionEnvelope.
	OutputEnvelope OutputMode = "envelope"
	// OutputSummary writes only the MasterSummary, dropping the per-source breakdown.
	OutputSummary OutputMode = "summary"
	// OutputItems writes the bare item sequence with the master summary item first.
	OutputItems OutputMode = "items"
)

// ParseOutputMode validates a configured mode; empty means envelope.
func ParseOutputMode(value string) (OutputMode, error) {
	switch mode := OutputMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return OutputEnvelope, nil
	case OutputEnvelope, OutputSummary, OutputItems:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown output mode %q", value)
	}
}
