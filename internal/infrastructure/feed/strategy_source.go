package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightouch/insights/internal/config"
	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
	"github.com/lightouch/insights/internal/scanner"
)

// StrategySource implements ports.ItemSource via registered scanner
// strategies. Sites fail independently: one broken feed is logged and
// skipped so the aggregate still carries every other site's items.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// FetchRecent iterates over configured sites in encounter order and
// executes their scanners, deduplicating by canonical URL across sites.
func (s *StrategySource) FetchRecent(ctx context.Context, cutoff time.Time) ([]domain.HarvestedItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch recent", "sites", len(s.sites), "cutoff", cutoff.Format(time.RFC3339))

	var aggregated []domain.HarvestedItem
	seen := map[string]struct{}{}
	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			s.warn("skip site", "site", site.Name, "error", err)
			continue
		}

		req := scanner.Request{
			Cutoff:     cutoff,
			SiteName:   site.Name,
			Options:    site.Options,
			Categories: toScannerCategories(site.Categories),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("skip site", "site", site.Name, "error", err)
			continue
		}

		for _, item := range results {
			if _, dup := seen[item.URL]; dup {
				continue
			}
			seen[item.URL] = struct{}{}
			if item.Source == "" {
				item.Source = site.Name
			}
			aggregated = append(aggregated, item)
		}
		s.debug("site produced items", "site", site.Name, "count", len(results))
	}

	s.debug("strategy source done", "total_items", len(aggregated))
	return aggregated, nil
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
