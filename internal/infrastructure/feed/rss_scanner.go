// Package feed holds the harvesting strategies behind the item source:
// an RSS/Atom scanner and an HTML listing-page scanner.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/scanner"
)

const (
	userAgent     = "lightouch-insights/1.0"
	snippetLength = 300
)

// RSSScanner harvests RSS and Atom feeds via gofeed.
type RSSScanner struct {
	client *http.Client
}

// NewRSSScanner wires an HTTP client; nil gets a 10s timeout default.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RSSScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan walks each category feed and returns normalized items in feed
// order. Items missing a title or link are dropped; items older than the
// cutoff are dropped; undated items are kept.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.HarvestedItem, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no feed urls provided for site %s", req.SiteName)
	}

	parser := gofeed.NewParser()
	parser.Client = s.client
	parser.UserAgent = userAgent

	var results []domain.HarvestedItem
	for _, cat := range req.Categories {
		parsed, err := parser.ParseURLWithContext(cat.URL, ctx)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", cat.Name, err)
		}

		sourceName := strings.TrimSpace(parsed.Title)
		if sourceName == "" {
			sourceName = hostOf(cat.URL, req.SiteName)
		}

		for _, item := range parsed.Items {
			title := strings.TrimSpace(item.Title)
			link := strings.TrimSpace(item.Link)
			if title == "" || link == "" {
				continue
			}

			var publishedAt time.Time
			if item.PublishedParsed != nil {
				publishedAt = item.PublishedParsed.UTC()
				if publishedAt.Before(req.Cutoff) {
					continue
				}
			}

			results = append(results, domain.HarvestedItem{
				Title:       title,
				URL:         link,
				Source:      sourceName,
				Snippet:     Snippet(item.Description, snippetLength),
				PublishedAt: publishedAt,
			})
		}
	}

	return results, nil
}

// Snippet strips HTML markup from raw and bounds the result to max runes.
func Snippet(raw string, max int) string {
	text := strings.TrimSpace(raw)
	if strings.ContainsAny(text, "<>") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = strings.TrimSpace(doc.Text())
		}
	}
	runes := []rune(text)
	if len(runes) > max {
		text = strings.TrimSpace(string(runes[:max]))
	}
	return text
}

func hostOf(rawURL, fallback string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return fallback
}
