package references

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// CuratedLocator returns a fixed list of known-scrapeable pages.
type CuratedLocator struct {
	candidates []domain.ReferenceCandidate
	count      int
}

var _ ports.ReferenceLocator = (*CuratedLocator)(nil)

// NewCuratedLocator slices candidates to count on every call.
func NewCuratedLocator(candidates []domain.ReferenceCandidate, count int) *CuratedLocator {
	return &CuratedLocator{candidates: candidates, count: count}
}

// Locate ignores the query.
func (l *CuratedLocator) Locate(_ context.Context, _ string) ([]domain.ReferenceCandidate, error) {
	n := min(l.count, len(l.candidates))
	if n < 0 {
		n = 0
	}
	out := make([]domain.ReferenceCandidate, n)
	copy(out, l.candidates[:n])
	return out, nil
}

// SearchLocatorDeps wires the live search strategy.
type SearchLocatorDeps struct {
	Search         ports.SearchClient
	Fallback       ports.ReferenceLocator
	Count          int
	Suffix         string
	BlockedDomains []string
	Logger         *slog.Logger
}

// SearchLocator queries a search provider and degrades to Fallback for the
// current call when the provider fails or yields nothing usable.
type SearchLocator struct {
	search   ports.SearchClient
	fallback ports.ReferenceLocator
	count    int
	suffix   string
	blocked  []string
	logger   *slog.Logger
}

var _ ports.ReferenceLocator = (*SearchLocator)(nil)

// NewSearchLocator builds the live strategy.
func NewSearchLocator(deps SearchLocatorDeps) *SearchLocator {
	blocked := make([]string, 0, len(deps.BlockedDomains))
	for _, d := range deps.BlockedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			blocked = append(blocked, strings.TrimPrefix(d, "www."))
		}
	}
	return &SearchLocator{
		search:   deps.Search,
		fallback: deps.Fallback,
		count:    deps.Count,
		suffix:   strings.TrimSpace(deps.Suffix),
		blocked:  blocked,
		logger:   deps.Logger,
	}
}

// Locate returns at most count candidates for query.
func (l *SearchLocator) Locate(ctx context.Context, query string) ([]domain.ReferenceCandidate, error) {
	q := strings.TrimSpace(strings.TrimSpace(query) + " " + l.suffix)

	// Ask for extra results so filtering still leaves count candidates.
	results, err := l.search.Search(ctx, q, min(max(l.count*5, 10), 20))
	if err != nil {
		l.warn("search failed, using curated references", "query", q, "error", err)
		return l.degrade(ctx, query)
	}

	candidates := make([]domain.ReferenceCandidate, 0, l.count)
	seen := map[string]struct{}{}
	for _, r := range results {
		if len(candidates) >= l.count {
			break
		}
		if !l.usable(r.URL) {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		candidates = append(candidates, r)
	}

	if len(candidates) == 0 {
		l.warn("search returned no usable results, using curated references", "query", q, "results", len(results))
		return l.degrade(ctx, query)
	}

	l.debug("search located references", "query", q, "count", len(candidates))
	return candidates, nil
}

func (l *SearchLocator) degrade(ctx context.Context, query string) ([]domain.ReferenceCandidate, error) {
	if l.fallback == nil {
		return nil, nil
	}
	return l.fallback.Locate(ctx, query)
}

func (l *SearchLocator) usable(link string) bool {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, d := range l.blocked {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	return true
}

func (l *SearchLocator) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *SearchLocator) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
