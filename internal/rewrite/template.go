package rewrite

import (
	"context"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// KeyInsights is appended verbatim by the template rewriter.
const KeyInsights = `## Key Insights

- **Automation efficiency:** AI assistants resolve routine requests instantly, freeing human agents for complex conversations.
- **Always-on availability:** Customers get answers around the clock, across time zones and channels, without waiting in a queue.
- **Consistency:** Every customer receives the same accurate, on-brand answer regardless of who or what handles the request.
- **Scalability:** Conversation volume can grow during launches or seasonal peaks without a matching increase in support headcount.`

// TemplateRewriter augments the article with a static insights block. It does
// not read the references.
type TemplateRewriter struct{}

var _ ports.Rewriter = TemplateRewriter{}

// Rewrite returns content followed by KeyInsights.
func (TemplateRewriter) Rewrite(_ context.Context, article domain.Article, _ []domain.ScrapedReference) (string, error) {
	return article.Content + "\n\n" + KeyInsights, nil
}
