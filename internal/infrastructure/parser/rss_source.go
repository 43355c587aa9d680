package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/source"
)

const (
	noTitle       = "No title"
	noDescription = "No description"
	noLink        = "No link"
	noDate        = "No date"
	userAgent     = "FeedCollector/1.0"
)

// NewsSource reads one RSS/Atom feed and emits a news item per entry.
type NewsSource struct {
	name   string
	url    string
	parser *gofeed.Parser
}

var _ source.Source = (*NewsSource)(nil)

// NewNewsSource wires a feed parser; a nil client gets a 30s timeout.
func NewNewsSource(cfg source.Config, client *http.Client) (*NewsSource, error) {
	feedURL := strings.TrimSpace(cfg.URL)
	if feedURL == "" {
		return nil, fmt.Errorf("rss source %s: url is required", cfg.Name)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	fp := gofeed.NewParser()
	fp.Client = client
	fp.UserAgent = userAgent

	return &NewsSource{name: cfg.Name, url: feedURL, parser: fp}, nil
}

// Name identifies the source inside the collection envelope.
func (s *NewsSource) Name() string {
	return s.name
}

// Fetch downloads and parses the feed.
func (s *NewsSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.url, err)
	}

	records := make([]domain.RawRecord, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		record := domain.RawRecord{}
		setIfPresent(record, "title", entry.Title)
		setIfPresent(record, "description", entry.Description)
		setIfPresent(record, "link", entry.Link)
		setIfPresent(record, "published", entry.Published)
		records = append(records, record)
	}
	return records, nil
}

// Normalize maps a feed entry onto a news item. Missing fields fall back to
// sentinel strings rather than failing the record.
func (s *NewsSource) Normalize(record domain.RawRecord, collectedAt time.Time) (domain.Item, error) {
	title, err := stringField(record, "title", noTitle)
	if err != nil {
		return domain.Item{}, err
	}
	description, err := stringField(record, "description", noDescription)
	if err != nil {
		return domain.Item{}, err
	}
	link, err := stringField(record, "link", noLink)
	if err != nil {
		return domain.Item{}, err
	}
	published, err := stringField(record, "published", noDate)
	if err != nil {
		return domain.Item{}, err
	}

	description = StripHTML(description)
	if description == "" {
		description = noDescription
	}

	return domain.Item{
		Kind:        domain.KindNews,
		Origin:      s.url,
		Title:       strings.TrimSpace(title),
		Description: description,
		Link:        link,
		PubDate:     published,
		CollectedAt: collectedAt,
	}, nil
}

func setIfPresent(record domain.RawRecord, key, value string) {
	if strings.TrimSpace(value) != "" {
		record[key] = value
	}
}

func stringField(record domain.RawRecord, key, fallback string) (string, error) {
	raw, ok := record[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %s: unexpected type %T", key, raw)
	}
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return value, nil
}
