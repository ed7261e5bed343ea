package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lightouch/insights/internal/scanner"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Tech News</title>
    <link>https://news.example.org</link>
    <item>
      <title>Fresh Story</title>
      <link>https://news.example.org/fresh</link>
      <description>&lt;p&gt;Something &lt;b&gt;new&lt;/b&gt; happened.&lt;/p&gt;</description>
      <pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Stale Story</title>
      <link>https://news.example.org/stale</link>
      <description>Old news.</description>
      <pubDate>Mon, 03 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://news.example.org/untitled</link>
      <description>No title here.</description>
    </item>
    <item>
      <title>Undated Story</title>
      <link>https://news.example.org/undated</link>
      <description>No date at all.</description>
    </item>
  </channel>
</rss>`

func TestRSSScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	cutoff := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	sc := NewRSSScanner(server.Client())

	items, err := sc.Scan(context.Background(), scanner.Request{
		Cutoff:   cutoff,
		SiteName: "example-news",
		Categories: []scanner.Category{
			{Name: "technology", URL: server.URL + "/feed.xml"},
		},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (fresh + undated), got %d: %+v", len(items), items)
	}

	fresh := items[0]
	if fresh.Title != "Fresh Story" || fresh.URL != "https://news.example.org/fresh" {
		t.Fatalf("unexpected first item: %+v", fresh)
	}
	if fresh.Source != "Example Tech News" {
		t.Fatalf("expected feed title as source, got %q", fresh.Source)
	}
	if fresh.Snippet != "Something new happened." {
		t.Fatalf("expected markup-free snippet, got %q", fresh.Snippet)
	}
	if fresh.PublishedAt.IsZero() {
		t.Fatal("expected a parsed publication time")
	}

	undated := items[1]
	if undated.Title != "Undated Story" {
		t.Fatalf("unexpected second item: %+v", undated)
	}
	if !undated.PublishedAt.IsZero() {
		t.Fatalf("undated item must keep zero time, got %v", undated.PublishedAt)
	}
}

func TestSnippetBounds(t *testing.T) {
	t.Parallel()

	long := ""
	for i := 0; i < 50; i++ {
		long += "abcdefghij"
	}
	if got := Snippet(long, 300); len([]rune(got)) != 300 {
		t.Fatalf("expected 300 runes, got %d", len([]rune(got)))
	}
	if got := Snippet("  plain text  ", 300); got != "plain text" {
		t.Fatalf("unexpected snippet: %q", got)
	}
}
