package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ArticleEnhancer/internal/scanner"
)

func TestCollectLinks(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
	<article><h2><a href="/blogs/one#top">One</a></h2></article>
	<article><h2><a href="https://blog.example.com/blogs/two">Two</a></h2></article>
	<article><h2><a href="https://elsewhere.org/post">External</a></h2></article>
	<article><h2><a href="mailto:team@example.com">Mail</a></h2></article>
	<article><h2><a href="/blogs/one">Duplicate</a></h2></article>
	<article><h2><a href="/blogs/">Self</a></h2></article>`)

	got := collectLinks(doc, "https://blog.example.com/blogs/", defaultLinkSelector)

	want := []string{
		"https://blog.example.com/blogs/one",
		"https://blog.example.com/blogs/two",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestBlogScannerScan(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/blogs/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blogs/" {
			slug := strings.TrimPrefix(r.URL.Path, "/blogs/")
			if slug == "broken" {
				http.Error(w, "gone", http.StatusGone)
				return
			}
			_, _ = fmt.Fprintf(w, `<html><body><article><h1>Post %s</h1><p>%s</p></article></body></html>`,
				slug, strings.Repeat(longSentence, 2))
			return
		}
		_, _ = w.Write([]byte(`<html><body>
		<article><h2><a href="/blogs/newest">Newest</a></h2></article>
		<article><h2><a href="/blogs/middle">Middle</a></h2></article>
		<article><h2><a href="/blogs/broken">Broken</a></h2></article>
		<article><h2><a href="/blogs/oldest">Oldest</a></h2></article>
		</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sc := NewBlogScanner(NewHTMLScraper(server.Client(), "", nil), nil, nil)

	req := scanner.Request{
		SiteName:   "example",
		Categories: []scanner.Category{{Name: "blogs", URL: server.URL + "/blogs/"}},
		Options:    map[string]string{"limit": "2", "order": "oldest"},
	}

	articles, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "Post oldest" || articles[0].OriginalURL != server.URL+"/blogs/oldest" {
		t.Fatalf("unexpected first article: %+v", articles[0])
	}
	if articles[1].Title != "Post middle" {
		t.Fatalf("broken page must be skipped, got %q", articles[1].Title)
	}
	if articles[0].ScrapedAt == nil || articles[0].Content == "" {
		t.Fatalf("article misses scrape metadata: %+v", articles[0])
	}
}

func TestBlogScannerRequiresListing(t *testing.T) {
	t.Parallel()

	sc := NewBlogScanner(nil, nil, nil)
	if _, err := sc.Scan(context.Background(), scanner.Request{SiteName: "empty"}); err == nil {
		t.Fatalf("expected error without listing pages")
	}
}
