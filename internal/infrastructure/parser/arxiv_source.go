package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/source"
)

const (
	arxivBaseURL     = "https://arxiv.org"
	defaultArxivPage = 50
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivSource reads the first page of an arXiv listing and emits one news item per paper.
type ArxivSource struct {
	name     string
	url      string
	client   *http.Client
	pageSize int
}

var _ source.Source = (*ArxivSource)(nil)

// NewArxivSource wires an HTTP client; the page size comes from params["show"].
func NewArxivSource(cfg source.Config, client *http.Client) (*ArxivSource, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("arxiv source %s: url is required", cfg.Name)
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	pageSize := defaultArxivPage
	if raw := cfg.Params["show"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("arxiv source %s: invalid show %q", cfg.Name, raw)
		}
		pageSize = n
	}

	return &ArxivSource{name: cfg.Name, url: strings.TrimSpace(cfg.URL), client: client, pageSize: pageSize}, nil
}

// Name identifies the source inside the collection envelope.
func (a *ArxivSource) Name() string {
	return a.name
}

// Fetch downloads the listing page and extracts raw entries.
func (a *ArxivSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	pageURL, err := buildPageURL(a.url, 0, a.pageSize)
	if err != nil {
		return nil, err
	}

	doc, err := a.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		records = append(records, parseEntry(dt, dt.Next()))
	})
	return records, nil
}

// Normalize maps an extracted listing entry onto a news item.
func (a *ArxivSource) Normalize(record domain.RawRecord, collectedAt time.Time) (domain.Item, error) {
	title, _ := record["title"].(string)
	if title == "" {
		return domain.Item{}, fmt.Errorf("arxiv entry without title")
	}
	abstract, _ := record["abstract"].(string)
	if abstract == "" {
		abstract = noDescription
	}
	link, _ := record["link"].(string)
	if link == "" {
		link = noLink
	}
	published, _ := record["published"].(string)
	if published == "" {
		published = noDate
	}

	return domain.Item{
		Kind:        domain.KindNews,
		Origin:      a.url,
		Title:       title,
		Description: abstract,
		Link:        link,
		PubDate:     published,
		CollectedAt: collectedAt,
	}, nil
}

func (a *ArxivSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func parseEntry(dt, dd *goquery.Selection) domain.RawRecord {
	record := domain.RawRecord{}

	link := dt.Find("a[href*=\"/abs/\"]").First()
	id := strings.TrimSpace(link.Text())
	href, _ := link.Attr("href")
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			record["published"] = parsed.Format("2006-01-02")
		}
	}

	setIfPresent(record, "id", id)
	setIfPresent(record, "link", href)
	setIfPresent(record, "title", title)
	setIfPresent(record, "abstract", StripHTML(summary))
	return record
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
