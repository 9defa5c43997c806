package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"ArticleEnhancer/internal/config"
	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// OpenAIClient implements ports.ChatClient backed by OpenAI-compatible APIs.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ ports.ChatClient = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration. httpClient carries the
// per-call timeout; nil falls back to 30 seconds.
func NewOpenAIClient(cfg config.OpenAIConfig, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	oc.HTTPClient = httpClient

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIClient{client: openai.NewClientWithConfig(oc), model: model}
}

// Complete sends one chat completion request and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req ports.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrInsufficientOutput)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps quota and capacity failures onto domain.ErrQuotaExceeded.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := strings.ToLower(fmt.Sprint(apiErr.Code))
		if isQuota(apiErr.HTTPStatusCode, code, strings.ToLower(apiErr.Type)) {
			return fmt.Errorf("%w: %s", domain.ErrQuotaExceeded, apiErr.Message)
		}
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return fmt.Errorf("%w (status %d): %s", domain.ErrModelUnauthorized, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return fmt.Errorf("openai api error (status %d): %w", apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && isQuota(reqErr.HTTPStatusCode, "", "") {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, reqErr.Err)
	}

	return fmt.Errorf("openai request: %w", err)
}

func isQuota(status int, code, typ string) bool {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return true
	case code == "insufficient_quota", typ == "insufficient_quota":
		return true
	default:
		return false
	}
}
