// Package storeapi talks to the article store REST API.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// Envelope is the response wrapper used by every store endpoint.
type Envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data,omitempty"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Client implements ports.ArticleStore over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.ArticleStore = (*Client)(nil)

// NewClient builds a client for baseURL, e.g. http://localhost:8000/api.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// LatestPending fetches the newest article that is not enhanced yet.
func (c *Client) LatestPending(ctx context.Context) (domain.Article, error) {
	var article domain.Article
	err := c.do(ctx, http.MethodGet, "/articles/latest", nil, &article, map[int]error{
		http.StatusNotFound: domain.ErrNoPendingArticle,
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("fetch latest article: %w", err)
	}
	return article, nil
}

// PublishEnhanced stores the enhanced body and citations for id.
func (c *Client) PublishEnhanced(ctx context.Context, id int64, content string, citations []string) (domain.Article, error) {
	if citations == nil {
		citations = []string{}
	}
	body := map[string]any{"ai_content": content, "citations": citations}

	var article domain.Article
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/articles/%d/publish-ai", id), body, &article, map[int]error{
		http.StatusNotFound: domain.ErrArticleNotFound,
		http.StatusConflict: domain.ErrAlreadyEnhanced,
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("publish article %d: %w", id, err)
	}
	return article, nil
}

// CreateArticle stores a scraped article.
func (c *Client) CreateArticle(ctx context.Context, in domain.Article) (domain.Article, error) {
	body := map[string]any{"title": in.Title, "content": in.Content}
	if in.OriginalURL != "" {
		body["original_url"] = in.OriginalURL
	}
	if in.ScrapedAt != nil {
		body["scraped_at"] = in.ScrapedAt.UTC().Format(time.RFC3339)
	}

	var article domain.Article
	err := c.do(ctx, http.MethodPost, "/articles", body, &article, map[int]error{
		http.StatusConflict: domain.ErrDuplicateArticle,
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("create article: %w", err)
	}
	return article, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, statusErrs map[int]error) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrStoreUnavailable, err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && !env.Success) {
		return statusError(method+" "+req.URL.String(), resp.StatusCode, env, raw, statusErrs)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// statusError maps a failed response onto domain errors. A 404 only counts as
// the expected sentinel when the envelope carries its code; any other 404 means
// the base URL does not point at the store API.
func statusError(target string, status int, env Envelope, raw []byte, statusErrs map[int]error) error {
	msg := env.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}

	if status == http.StatusUnprocessableEntity || len(env.Errors) > 0 {
		return &domain.ValidationError{Message: msg, Fields: env.Errors}
	}
	if sentinel, ok := statusErrs[status]; ok && (status != http.StatusNotFound || env.Code == domain.ErrorCode(sentinel)) {
		if msg == "" {
			return sentinel
		}
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	if status == http.StatusNotFound {
		if msg == "" {
			return fmt.Errorf("%w: %s returned 404", domain.ErrStoreEndpoint, target)
		}
		return fmt.Errorf("%w: %s returned 404: %s", domain.ErrStoreEndpoint, target, msg)
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d: %s", domain.ErrStoreUnavailable, status, msg)
	}
	return fmt.Errorf("store returned status %d: %s", status, msg)
}
