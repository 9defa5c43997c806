package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/scanner"
)

const (
	defaultLinkSelector = "article h2 a[href], article h3 a[href], .entry-title a[href], .post-title a[href], .blog-post a[href]"
	defaultBlogLimit    = 5
)

// BlogScanner reads a blog listing page and extracts each linked article.
//
// Options: linkSelector (CSS, anchors to follow), limit (articles per site),
// order ("oldest" reverses the listing, which is usually newest-first).
type BlogScanner struct {
	scraper *HTMLScraper
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewBlogScanner paces article fetches with limiter; nil means no delay.
func NewBlogScanner(scraper *HTMLScraper, limiter *rate.Limiter, logger *slog.Logger) *BlogScanner {
	if scraper == nil {
		scraper = NewHTMLScraper(nil, "", nil)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &BlogScanner{scraper: scraper, limiter: limiter, logger: logger, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (b *BlogScanner) Name() string {
	return "blog"
}

// Scan walks each listing page and returns up to limit extracted articles per site.
func (b *BlogScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no listing pages provided for site %s", req.SiteName)
	}

	selector := req.Option("linkSelector", defaultLinkSelector)
	limit := req.IntOption("limit", defaultBlogLimit)
	oldestFirst := strings.EqualFold(req.Option("order", ""), "oldest")

	results := make([]domain.Article, 0, limit)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		doc, err := b.scraper.Document(ctx, cat.URL)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", cat.Name, err)
		}

		links := collectLinks(doc, cat.URL, selector)
		if oldestFirst {
			slices.Reverse(links)
		}
		b.debug("listing parsed", "site", req.SiteName, "listing", cat.Name, "links", len(links))

		for _, link := range links {
			if len(results) >= limit {
				return results, nil
			}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}

			if err := b.limiter.Wait(ctx); err != nil {
				return results, fmt.Errorf("listing %s: %w", cat.Name, err)
			}

			page, err := b.scraper.Scrape(ctx, link)
			if err != nil {
				b.warn("article fetch failed", "url", link, "error", err)
				continue
			}
			if page.Body == "" || page.Title == "" {
				b.debug("article skipped, nothing extracted", "url", link)
				continue
			}

			scrapedAt := b.now().UTC()
			results = append(results, domain.Article{
				Title:       page.Title,
				Content:     page.Body,
				OriginalURL: link,
				ScrapedAt:   &scrapedAt,
				Citations:   []string{},
			})
		}
	}

	return results, nil
}

// collectLinks resolves matching anchors against base and keeps same-host http(s) links.
func collectLinks(doc *goquery.Document, base, selector string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var links []string
	seen := map[string]struct{}{}
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		abs := baseURL.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if !strings.EqualFold(abs.Hostname(), baseURL.Hostname()) {
			return
		}
		if strings.TrimSuffix(abs.String(), "/") == strings.TrimSuffix(baseURL.String(), "/") {
			return
		}

		link := abs.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links
}

func (b *BlogScanner) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *BlogScanner) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
