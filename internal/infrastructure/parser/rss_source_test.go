package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/source"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Markets</title>
    <item>
      <title>A</title>
      <description><![CDATA[<p>First <b>story</b></p>]]></description>
      <link>https://example.com/a</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>B</title>
      <description>Second story</description>
      <link>https://example.com/b</link>
    </item>
    <item>
      <title>C</title>
    </item>
    <item>
      <title>D</title>
      <description><![CDATA[<p><img src="http://x/a.png"/></p>]]></description>
    </item>
  </channel>
</rss>`

func TestNewsSourceExecute(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	src, err := NewNewsSource(source.Config{Name: "news", URL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("NewNewsSource: %v", err)
	}

	items := source.Execute(context.Background(), src, nil)
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}

	for i, want := range []string{"A", "B", "C", "D"} {
		if items[i].Title != want {
			t.Fatalf("item %d: expected title %s, got %s", i, want, items[i].Title)
		}
		if items[i].Kind != domain.KindNews {
			t.Fatalf("item %d: unexpected kind %s", i, items[i].Kind)
		}
		if items[i].Origin != server.URL {
			t.Fatalf("item %d: unexpected origin %s", i, items[i].Origin)
		}
	}

	if items[0].Description != "First story" {
		t.Fatalf("html not stripped: %q", items[0].Description)
	}
	if items[1].PubDate != noDate {
		t.Fatalf("expected date sentinel, got %q", items[1].PubDate)
	}
	if items[2].Description != noDescription || items[2].Link != noLink {
		t.Fatalf("expected sentinels, got %q / %q", items[2].Description, items[2].Link)
	}
	if items[3].Description != noDescription {
		t.Fatalf("markup-only description should fall back to sentinel, got %q", items[3].Description)
	}
}

func TestNewsSourceFetchFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	src, err := NewNewsSource(source.Config{Name: "news", URL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("NewNewsSource: %v", err)
	}

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if items := source.Execute(context.Background(), src, nil); len(items) != 0 {
		t.Fatalf("expected empty result, got %d", len(items))
	}
}

func TestNewsSourceNormalizeRejectsWrongType(t *testing.T) {
	t.Parallel()

	src, err := NewNewsSource(source.Config{Name: "news", URL: "https://example.com/feed"}, nil)
	if err != nil {
		t.Fatalf("NewNewsSource: %v", err)
	}

	if _, err := src.Normalize(domain.RawRecord{"title": 42}, time.Now()); err == nil {
		t.Fatal("expected error for non-string title")
	}
}

func TestNewsSourceNormalizeStripsMarkupOnlyDescription(t *testing.T) {
	t.Parallel()

	src, err := NewNewsSource(source.Config{Name: "news", URL: "https://example.com/feed"}, nil)
	if err != nil {
		t.Fatalf("NewNewsSource: %v", err)
	}

	for _, desc := range []string{`<p><img src="http://x/a.png"/></p>`, "<div> </div>"} {
		item, err := src.Normalize(domain.RawRecord{"title": "A", "description": desc}, time.Now())
		if err != nil {
			t.Fatalf("Normalize(%q): %v", desc, err)
		}
		if item.Description != noDescription {
			t.Fatalf("Normalize(%q): expected %q, got %q", desc, noDescription, item.Description)
		}
	}
}

func TestNewNewsSourceRequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewNewsSource(source.Config{Name: "news"}, nil); err == nil {
		t.Fatal("expected error for missing url")
	}
}
