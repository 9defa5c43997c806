package parser

import (
	"context"
	"fmt"
	"log/slog"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
	"ArticleEnhancer/internal/scanner"
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

// FetchAll runs every configured site's scanner. A failing site is logged and
// skipped; the call only fails when no site could be scanned at all.
func (s *StrategySource) FetchAll(ctx context.Context) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch listed articles", "sites", len(s.sites))

	var (
		aggregated []domain.Article
		lastErr    error
		scanned    int
	)
	seen := map[string]struct{}{}

	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			lastErr = fmt.Errorf("site %s: %w", site.Name, err)
			s.warn("site skipped", "site", site.Name, "error", err)
			continue
		}

		req := scanner.Request{
			SiteName:   site.Name,
			Options:    site.Options,
			Categories: toScannerCategories(site.Categories),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			lastErr = fmt.Errorf("scan site %s: %w", site.Name, err)
			s.warn("site scan failed", "site", site.Name, "error", err)
			continue
		}
		scanned++

		for _, article := range results {
			if article.OriginalURL != "" {
				if _, dup := seen[article.OriginalURL]; dup {
					continue
				}
				seen[article.OriginalURL] = struct{}{}
			}
			aggregated = append(aggregated, article)
		}
		s.debug("site produced articles", "site", site.Name, "count", len(results))
	}

	if scanned == 0 && lastErr != nil {
		return nil, lastErr
	}

	s.debug("strategy source done", "total_articles", len(aggregated))
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
