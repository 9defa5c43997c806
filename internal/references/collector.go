package references

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// MinReferenceLength is the body length a scraped reference must exceed.
const MinReferenceLength = 200

const (
	fallbackURL     = "https://example.com/ai-customer-service-reference"
	fallbackTitle   = "AI in Customer Service: Industry Overview"
	fallbackContent = "AI-powered customer service platforms combine natural language understanding with " +
		"workflow automation to resolve common requests without human intervention. Businesses adopting " +
		"chatbots report faster first-response times, round-the-clock availability, and more consistent " +
		"answers across channels. The most successful deployments keep humans in the loop for complex or " +
		"sensitive conversations, use conversation analytics to improve answers over time, and integrate " +
		"the assistant with existing help desks and CRMs so context is never lost during a handoff."
)

// FallbackReference is the synthesized reference used when nothing could be scraped.
func FallbackReference() domain.ScrapedReference {
	return domain.ScrapedReference{URL: fallbackURL, Title: fallbackTitle, Content: fallbackContent}
}

// Collector scrapes candidates in order until enough references are accepted.
type Collector struct {
	scraper   ports.PageScraper
	limiter   *rate.Limiter
	minLength int
	logger    *slog.Logger
}

var _ ports.ReferenceCollector = (*Collector)(nil)

// NewCollector paces fetches with limiter; nil means no delay.
func NewCollector(scraper ports.PageScraper, limiter *rate.Limiter, logger *slog.Logger) *Collector {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Collector{scraper: scraper, limiter: limiter, minLength: MinReferenceLength, logger: logger}
}

// WithMinLength overrides the acceptance threshold; non-positive values keep
// MinReferenceLength.
func (c *Collector) WithMinLength(n int) *Collector {
	if n > 0 {
		c.minLength = n
	}
	return c
}

// Collect returns between 1 and n references. Candidate failures are logged and
// skipped; candidates after the n-th acceptance are never fetched.
func (c *Collector) Collect(ctx context.Context, candidates []domain.ReferenceCandidate, n int) []domain.ScrapedReference {
	if n <= 0 {
		n = 1
	}

	refs := make([]domain.ScrapedReference, 0, n)
	for _, cand := range candidates {
		if len(refs) >= n {
			break
		}
		if err := c.limiter.Wait(ctx); err != nil {
			c.warn("reference collection interrupted", "error", err)
			break
		}

		page, err := c.scraper.Scrape(ctx, cand.URL)
		if err != nil {
			c.warn("reference fetch failed", "url", cand.URL, "error", err)
			continue
		}

		if length := utf8.RuneCountInString(page.Body); length <= c.minLength {
			c.debug("reference skipped, content too short", "url", cand.URL, "length", length)
			continue
		}

		title := page.Title
		if title == "" {
			title = cand.Title
		}
		refs = append(refs, domain.ScrapedReference{URL: cand.URL, Title: title, Content: page.Body})
		c.debug("reference accepted", "url", cand.URL, "length", utf8.RuneCountInString(page.Body))
	}

	if len(refs) == 0 {
		c.warn("no reference could be scraped, using built-in reference", "candidates", len(candidates))
		refs = append(refs, FallbackReference())
	}

	return refs
}

func (c *Collector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
