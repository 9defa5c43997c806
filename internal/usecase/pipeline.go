package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ArticleEnhancer/internal/citation"
	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// Stage names one step of an enhancement run.
type Stage string

const (
	StageLock    Stage = "lock"
	StageFetch   Stage = "fetch"
	StageLocate  Stage = "locate"
	StageCollect Stage = "collect"
	StageRewrite Stage = "rewrite"
	StagePublish Stage = "publish"
)

// StageError records which stage aborted the run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PipelineDeps wires all driven adapters into the enhancement pipeline.
type PipelineDeps struct {
	Store          ports.ArticleStore
	Locator        ports.ReferenceLocator
	Collector      ports.ReferenceCollector
	Rewriter       ports.Rewriter
	Notifier       ports.Notifier
	Lock           ports.RunLock
	ReferenceCount int
	Logger         *slog.Logger
}

// Pipeline enhances one pending article per run:
// fetch, locate, collect, rewrite, publish. Any stage failure aborts the run
// before anything is published.
type Pipeline struct {
	store     ports.ArticleStore
	locator   ports.ReferenceLocator
	collector ports.ReferenceCollector
	rewriter  ports.Rewriter
	notifier  ports.Notifier
	lock      ports.RunLock
	refCount  int
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	refCount := deps.ReferenceCount
	if refCount <= 0 {
		refCount = 2
	}
	return &Pipeline{
		store:     deps.Store,
		locator:   deps.Locator,
		collector: deps.Collector,
		rewriter:  deps.Rewriter,
		notifier:  deps.Notifier,
		lock:      deps.Lock,
		refCount:  refCount,
		logger:    deps.Logger,
	}
}

// Run executes every stage once and returns the published article.
func (p *Pipeline) Run(ctx context.Context) (domain.Article, error) {
	if p.store == nil || p.locator == nil || p.collector == nil || p.rewriter == nil {
		return domain.Article{}, errors.New("pipeline misconfigured: store, locator, collector and rewriter are required")
	}

	if p.lock != nil {
		release, err := p.lock.Acquire(ctx)
		if err != nil {
			return domain.Article{}, &StageError{Stage: StageLock, Err: err}
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				p.warn("release run lock failed", "error", err)
			}
		}()
	}

	started := time.Now()

	p.stage(StageFetch, "fetching latest pending article")
	article, err := p.store.LatestPending(ctx)
	if err != nil {
		return domain.Article{}, &StageError{Stage: StageFetch, Err: err}
	}
	p.stage(StageFetch, "article fetched", "id", article.ID, "title", article.Title)

	p.stage(StageLocate, "locating references", "query", article.Title)
	candidates, err := p.locator.Locate(ctx, article.Title)
	if err != nil {
		return domain.Article{}, &StageError{Stage: StageLocate, Err: err}
	}
	p.stage(StageLocate, "candidates located", "count", len(candidates))

	p.stage(StageCollect, "scraping references", "target", p.refCount)
	refs := p.collector.Collect(ctx, candidates, p.refCount)
	if err := ctx.Err(); err != nil {
		return domain.Article{}, &StageError{Stage: StageCollect, Err: err}
	}
	p.stage(StageCollect, "references collected", "count", len(refs))

	p.stage(StageRewrite, "rewriting article")
	body, err := p.rewriter.Rewrite(ctx, article, refs)
	if err != nil {
		return domain.Article{}, &StageError{Stage: StageRewrite, Err: err}
	}
	p.stage(StageRewrite, "article rewritten", "length", len(body))

	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	citations := citation.Normalize(urls)
	content := citation.Format(body, citations)

	p.stage(StagePublish, "publishing enhanced article", "id", article.ID, "citations", len(citations))
	published, err := p.store.PublishEnhanced(ctx, article.ID, content, citations)
	if err != nil {
		return domain.Article{}, &StageError{Stage: StagePublish, Err: err}
	}
	p.stage(StagePublish, "article published", "id", published.ID, "elapsed", time.Since(started).Round(time.Millisecond))

	p.notify(ctx, published)
	return published, nil
}

func (p *Pipeline) notify(ctx context.Context, article domain.Article) {
	if p.notifier == nil {
		return
	}
	message := fmt.Sprintf("Enhanced article published: *%s* (id %d, %d citations)",
		markdownEscaper.Replace(article.Title), article.ID, len(article.Citations))
	if err := p.notifier.Notify(ctx, message); err != nil {
		p.warn("publish notification failed", "id", article.ID, "error", err)
	}
}

// markdownEscaper escapes the entity markers of Telegram's legacy Markdown.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func (p *Pipeline) stage(stage Stage, msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, append([]any{"stage", string(stage)}, args...)...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
