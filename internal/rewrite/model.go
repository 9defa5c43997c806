package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// ModelOptions tunes the model-backed rewriter.
type ModelOptions struct {
	SystemPrompt      string
	Temperature       float32
	MaxTokens         int
	MinOutputLength   int
	MaxReferenceChars int
}

// DefaultModelOptions mirrors the configured defaults.
func DefaultModelOptions() ModelOptions {
	return ModelOptions{
		Temperature:       0.7,
		MaxTokens:         2000,
		MinOutputLength:   100,
		MaxReferenceChars: 1500,
	}
}

// ModelRewriter asks a chat model for the enhanced body. Quota failures
// degrade to the fallback rewriter; every other failure is returned.
type ModelRewriter struct {
	chat     ports.ChatClient
	fallback ports.Rewriter
	opts     ModelOptions
	logger   *slog.Logger
}

var _ ports.Rewriter = (*ModelRewriter)(nil)

// NewModelRewriter fills zero options from DefaultModelOptions. A nil fallback
// means the template rewriter.
func NewModelRewriter(chat ports.ChatClient, fallback ports.Rewriter, opts ModelOptions, logger *slog.Logger) *ModelRewriter {
	def := DefaultModelOptions()
	if opts.Temperature <= 0 {
		opts.Temperature = def.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.MinOutputLength <= 0 {
		opts.MinOutputLength = def.MinOutputLength
	}
	if opts.MaxReferenceChars <= 0 {
		opts.MaxReferenceChars = def.MaxReferenceChars
	}
	if fallback == nil {
		fallback = TemplateRewriter{}
	}
	return &ModelRewriter{chat: chat, fallback: fallback, opts: opts, logger: logger}
}

// Rewrite makes exactly one model call.
func (r *ModelRewriter) Rewrite(ctx context.Context, article domain.Article, refs []domain.ScrapedReference) (string, error) {
	out, err := r.chat.Complete(ctx, ports.ChatRequest{
		Messages:    BuildMessages(r.opts.SystemPrompt, article, refs, r.opts.MaxReferenceChars),
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			if r.logger != nil {
				r.logger.Warn("model quota exceeded, using template rewrite", "error", err)
			}
			return r.fallback.Rewrite(ctx, article, refs)
		}
		return "", fmt.Errorf("model rewrite: %w", err)
	}

	out = strings.TrimSpace(out)
	if n := utf8.RuneCountInString(out); n < r.opts.MinOutputLength {
		return "", fmt.Errorf("%w: model returned %d characters", domain.ErrInsufficientOutput, n)
	}
	return out, nil
}
