package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// SeederDeps wires the blog source to the article store.
type SeederDeps struct {
	Source ports.ArticleSource
	Store  ports.ArticleStore
	Logger *slog.Logger
}

// SeedReport counts the outcome of one seeding pass.
type SeedReport struct {
	Fetched int
	Created int
	Skipped int
}

// Seeder scrapes configured blogs and stores the articles it finds.
type Seeder struct {
	source ports.ArticleSource
	store  ports.ArticleStore
	logger *slog.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(deps SeederDeps) *Seeder {
	return &Seeder{source: deps.Source, store: deps.Store, logger: deps.Logger}
}

// Seed creates every scraped article. Articles the store already holds or
// rejects as invalid are skipped; any other store failure aborts the pass.
func (s *Seeder) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	if s.source == nil || s.store == nil {
		return report, errors.New("seeder misconfigured: source and store are required")
	}

	articles, err := s.source.FetchAll(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch blog articles: %w", err)
	}
	report.Fetched = len(articles)

	for _, article := range articles {
		created, err := s.store.CreateArticle(ctx, article)
		switch {
		case err == nil:
			report.Created++
			s.log(slog.LevelInfo, "article stored", "id", created.ID, "title", created.Title)
		case errors.Is(err, domain.ErrDuplicateArticle):
			report.Skipped++
			s.log(slog.LevelDebug, "article already stored", "url", article.OriginalURL)
		case errors.Is(err, domain.ErrValidation):
			report.Skipped++
			s.log(slog.LevelWarn, "article rejected by store", "url", article.OriginalURL, "error", err)
		default:
			return report, fmt.Errorf("store article %s: %w", article.OriginalURL, err)
		}
	}

	return report, nil
}

func (s *Seeder) log(level slog.Level, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
