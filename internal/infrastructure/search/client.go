package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// Client queries a SerpAPI-compatible search endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.SearchClient = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.SearchConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     httpClient,
	}
}

type searchResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic_results"`
}

// Search returns organic results in provider order.
func (c *Client) Search(ctx context.Context, query string, num int) ([]domain.ReferenceCandidate, error) {
	if c.apiKey == "" || c.endpoint == "" {
		return nil, fmt.Errorf("search client misconfigured")
	}

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint %s: %w", c.endpoint, err)
	}
	q := endpoint.Query()
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("num", strconv.Itoa(num))
	q.Set("api_key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	var resp searchResponse
	if err := c.get(ctx, endpoint.String(), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("search provider error: %s", resp.Error)
	}

	results := make([]domain.ReferenceCandidate, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		link := strings.TrimSpace(r.Link)
		if link == "" {
			continue
		}
		results = append(results, domain.ReferenceCandidate{Title: strings.TrimSpace(r.Title), URL: link})
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("search returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
