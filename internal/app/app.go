package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/infrastructure/llm"
	"ArticleEnhancer/internal/infrastructure/lock"
	"ArticleEnhancer/internal/infrastructure/parser"
	"ArticleEnhancer/internal/infrastructure/scheduler"
	"ArticleEnhancer/internal/infrastructure/search"
	"ArticleEnhancer/internal/infrastructure/storeapi"
	"ArticleEnhancer/internal/infrastructure/telegram"
	"ArticleEnhancer/internal/logging"
	"ArticleEnhancer/internal/ports"
	"ArticleEnhancer/internal/references"
	"ArticleEnhancer/internal/rewrite"
	"ArticleEnhancer/internal/scanner"
	"ArticleEnhancer/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration. Every
// strategy is chosen once here, from the configuration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	seeder   *usecase.Seeder
	redis    *redis.Client
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	limiter := newLimiter(cfg)
	scraper := parser.NewHTMLScraper(httpClient, cfg.HTTP.UserAgent, parser.NewExtractor())
	store := storeapi.NewClient(cfg.Store.BaseURL, httpClient)

	a := &Application{cfg: cfg, logger: baseLogger}

	var runLock ports.RunLock
	if cfg.Lock.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
		runLock = lock.NewRedisLock(a.redis, cfg.Lock.Key, cfg.Lock.TTL)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram, nil)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Store:          store,
		Locator:        newLocator(cfg, httpClient, baseLogger),
		Collector:      references.NewCollector(scraper, limiter, baseLogger.With("component", "collector")).WithMinLength(cfg.References.MinContentLength),
		Rewriter:       newRewriter(cfg, httpClient, baseLogger),
		Notifier:       notifier,
		Lock:           runLock,
		ReferenceCount: cfg.References.Count,
		Logger:         baseLogger.With("component", "pipeline"),
	})

	registry := scanner.NewRegistry()
	registry.Register(parser.NewBlogScanner(scraper, limiter, baseLogger.With("component", "scanner.blog")))
	source := parser.NewStrategySource(registry, cfg.Sites, baseLogger.With("component", "source"))

	a.seeder = usecase.NewSeeder(usecase.SeederDeps{
		Source: source,
		Store:  store,
		Logger: baseLogger.With("component", "seeder"),
	})

	return a
}

func newLimiter(cfg config.Config) *rate.Limiter {
	if cfg.References.FetchDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(cfg.References.FetchDelay), 1)
}

func newLocator(cfg config.Config, httpClient *http.Client, logger *slog.Logger) ports.ReferenceLocator {
	curated := make([]domain.ReferenceCandidate, 0, len(cfg.References.Curated))
	for _, c := range cfg.References.Curated {
		curated = append(curated, domain.ReferenceCandidate{Title: c.Title, URL: c.URL})
	}
	fallback := references.NewCuratedLocator(curated, cfg.References.Count)

	if cfg.Search.APIKey == "" {
		logger.Debug("search credential absent, using curated references")
		return fallback
	}
	return references.NewSearchLocator(references.SearchLocatorDeps{
		Search:         search.NewClient(cfg.Search, httpClient),
		Fallback:       fallback,
		Count:          cfg.References.Count,
		Suffix:         cfg.Search.Suffix,
		BlockedDomains: cfg.Search.BlockedDomains,
		Logger:         logger.With("component", "locator.search"),
	})
}

func newRewriter(cfg config.Config, httpClient *http.Client, logger *slog.Logger) ports.Rewriter {
	if cfg.OpenAI.APIKey == "" {
		logger.Debug("model credential absent, using template rewrite")
		return rewrite.TemplateRewriter{}
	}
	return rewrite.NewModelRewriter(
		llm.NewOpenAIClient(cfg.OpenAI, httpClient),
		rewrite.TemplateRewriter{},
		rewrite.ModelOptions{
			SystemPrompt: cfg.OpenAI.SystemPrompt,
			Temperature:  cfg.OpenAI.Temperature,
			MaxTokens:    cfg.OpenAI.MaxTokens,
		},
		logger.With("component", "rewriter.model"),
	)
}

// Run performs a single enhancement run.
func (a *Application) Run(ctx context.Context) (domain.Article, error) {
	return a.pipeline.Run(ctx)
}

// Watch re-runs the pipeline every interval until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	a.logger.Info("watch mode started", "interval", a.cfg.Scheduler.Interval)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.Timeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("watch mode stopped")
	return nil
}

// Seed scrapes the configured blogs into the store.
func (a *Application) Seed(ctx context.Context) (usecase.SeedReport, error) {
	return a.seeder.Seed(ctx)
}

// Close releases clients opened by New.
func (a *Application) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
