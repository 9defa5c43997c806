package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

const maxDocumentBytes = 5 << 20

// HTMLScraper downloads pages and runs the Extractor over them.
type HTMLScraper struct {
	client    *http.Client
	userAgent string
	extractor *Extractor
}

var _ ports.PageScraper = (*HTMLScraper)(nil)

// NewHTMLScraper wires an HTTP client; nil client and extractor get defaults.
func NewHTMLScraper(client *http.Client, userAgent string, extractor *Extractor) *HTMLScraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if extractor == nil {
		extractor = NewExtractor()
	}
	if userAgent == "" {
		userAgent = "ArticleEnhancer/1.0"
	}
	return &HTMLScraper{client: client, userAgent: userAgent, extractor: extractor}
}

// Scrape fetches pageURL and returns its extracted title and body.
func (s *HTMLScraper) Scrape(ctx context.Context, pageURL string) (domain.Page, error) {
	doc, err := s.Document(ctx, pageURL)
	if err != nil {
		return domain.Page{}, err
	}

	extracted := s.extractor.Extract(doc)
	return domain.Page{URL: pageURL, Title: extracted.Title, Body: extracted.Body}, nil
}

// Document fetches pageURL and parses it without extraction.
func (s *HTMLScraper) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc.Url = resp.Request.URL

	return doc, nil
}
