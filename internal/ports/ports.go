package ports

import (
	"context"
	"time"

	"ArticleEnhancer/internal/domain"
)

// ArticleStore is the pipeline's view of the article store API.
type ArticleStore interface {
	LatestPending(ctx context.Context) (domain.Article, error)
	PublishEnhanced(ctx context.Context, id int64, content string, citations []string) (domain.Article, error)
	CreateArticle(ctx context.Context, article domain.Article) (domain.Article, error)
}

// ArticleRepository persists articles behind the store API.
type ArticleRepository interface {
	List(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error)
	Get(ctx context.Context, id int64) (domain.Article, error)
	LatestPending(ctx context.Context) (domain.Article, error)
	Create(ctx context.Context, article domain.Article) (domain.Article, error)
	Update(ctx context.Context, id int64, update domain.ArticleUpdate) (domain.Article, error)
	Delete(ctx context.Context, id int64) error
	Publish(ctx context.Context, id int64, content string, citations []string) (domain.Article, error)
}

// ArticleSource pulls listed articles from configured blogs for seeding.
type ArticleSource interface {
	FetchAll(ctx context.Context) ([]domain.Article, error)
}

// PageScraper fetches a page and returns its extracted text.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (domain.Page, error)
}

// SearchClient queries a web search provider.
type SearchClient interface {
	Search(ctx context.Context, query string, num int) ([]domain.ReferenceCandidate, error)
}

// ReferenceLocator proposes reference pages for a query.
type ReferenceLocator interface {
	Locate(ctx context.Context, query string) ([]domain.ReferenceCandidate, error)
}

// ReferenceCollector scrapes candidates until enough usable references exist.
type ReferenceCollector interface {
	Collect(ctx context.Context, candidates []domain.ReferenceCandidate, n int) []domain.ScrapedReference
}

// Rewriter produces the enhanced article body.
type Rewriter interface {
	Rewrite(ctx context.Context, article domain.Article, refs []domain.ScrapedReference) (string, error)
}

// ChatMessage is a single role-tagged message.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest describes one chat completion call.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

// ChatClient talks to a chat-style language model.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Notifier announces published articles to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// RunLock guards a pipeline run against concurrent invocations.
type RunLock interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
