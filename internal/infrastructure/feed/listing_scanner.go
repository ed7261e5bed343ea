package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/scanner"
)

// Selector option keys understood by the listing scanner.
const (
	optItemSelector    = "item"
	optTitleSelector   = "title"
	optLinkSelector    = "link"
	optSnippetSelector = "snippet"
	optDateSelector    = "date"
	optDateLayout      = "dateLayout"
)

// ListingScanner harvests plain HTML news listing pages whose structure
// is described by CSS selectors in the site options.
type ListingScanner struct {
	client *http.Client
}

// NewListingScanner wires an HTTP client; nil gets a 10s timeout default.
func NewListingScanner(client *http.Client) *ListingScanner {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ListingScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *ListingScanner) Name() string {
	return "html"
}

// Scan fetches each category page and extracts one item per element
// matching the configured item selector, in document order.
func (s *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.HarvestedItem, error) {
	itemSel := req.Options[optItemSelector]
	if itemSel == "" {
		return nil, fmt.Errorf("site %s: missing %q selector option", req.SiteName, optItemSelector)
	}

	var results []domain.HarvestedItem
	for _, cat := range req.Categories {
		doc, base, err := s.fetchDocument(ctx, cat.URL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		doc.Find(itemSel).Each(func(_ int, sel *goquery.Selection) {
			item, ok := extractItem(sel, req.Options, base, req.SiteName)
			if !ok {
				return
			}
			if !item.PublishedAt.IsZero() && item.PublishedAt.Before(req.Cutoff) {
				return
			}
			results = append(results, item)
		})
	}

	return results, nil
}

func (s *ListingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("listing page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, resp.Request.URL, nil
}

func extractItem(sel *goquery.Selection, options map[string]string, base *url.URL, siteName string) (domain.HarvestedItem, bool) {
	title := strings.TrimSpace(firstText(sel, options[optTitleSelector]))

	link := sel.Find(options[optLinkSelector]).First()
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href != "" && base != nil {
		if resolved, err := base.Parse(href); err == nil {
			href = resolved.String()
		}
	}

	if title == "" || href == "" {
		return domain.HarvestedItem{}, false
	}

	item := domain.HarvestedItem{
		Title:   title,
		URL:     href,
		Source:  siteName,
		Snippet: Snippet(firstText(sel, options[optSnippetSelector]), snippetLength),
	}

	if dateSel := options[optDateSelector]; dateSel != "" {
		layout := options[optDateLayout]
		if layout == "" {
			layout = "2006-01-02"
		}
		raw := strings.TrimSpace(firstText(sel, dateSel))
		if parsed, err := time.Parse(layout, raw); err == nil {
			item.PublishedAt = parsed.UTC()
		}
	}

	return item, true
}

func firstText(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return sel.Find(selector).First().Text()
}
