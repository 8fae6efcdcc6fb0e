package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPrioritizer/internal/config"
	"NewsPrioritizer/internal/domain"
	"NewsPrioritizer/internal/ports"
	"NewsPrioritizer/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// FetchRecent iterates over configured sites and executes their scanners.
// Articles reported by more than one site are kept once.
func (s *StrategySource) FetchRecent(ctx context.Context, since time.Time) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch recent", "sites", len(s.sites), "since", since.Format(time.RFC3339))

	var aggregated []domain.Article
	seen := map[string]struct{}{}
	for _, site := range s.sites {
		s.debug("process site", "site", site.Name, "scanner", site.Scanner, "categories", len(site.Categories))
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		agency := site.Agency
		if agency == "" {
			agency = site.Name
		}

		req := scanner.Request{
			Since:      since,
			SiteName:   site.Name,
			Agency:     agency,
			Options:    site.Options,
			Categories: toScannerCategories(site.Categories),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
		}

		added := 0
		for _, article := range results {
			if _, ok := seen[article.UniqueID]; ok {
				continue
			}
			seen[article.UniqueID] = struct{}{}
			aggregated = append(aggregated, article)
			added++
		}
		s.debug("site produced articles", "site", site.Name, "count", added)
	}

	s.debug("strategy source done", "total_articles", len(aggregated))
	return aggregated, nil
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name:       cat.Name,
			URL:        cat.URL,
			ThemeCode:  cat.ThemeCode,
			ThemeLabel: cat.ThemeLabel,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
