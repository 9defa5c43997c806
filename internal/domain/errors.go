package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoPendingArticle means every stored article is already enhanced.
	ErrNoPendingArticle = errors.New("no pending article")
	// ErrArticleNotFound is returned for unknown or soft-deleted ids.
	ErrArticleNotFound = errors.New("article not found")
	// ErrAlreadyEnhanced rejects a second publish for the same article.
	ErrAlreadyEnhanced = errors.New("article already enhanced")
	// ErrDuplicateArticle rejects a create whose original URL is already stored.
	ErrDuplicateArticle = errors.New("article already exists")
	// ErrStoreUnavailable wraps transport failures talking to the article store.
	ErrStoreUnavailable = errors.New("article store unavailable")
	// ErrStoreEndpoint means the configured URL answered, but not as the article store.
	ErrStoreEndpoint = errors.New("article store endpoint not found")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrQuotaExceeded is the recoverable model failure: callers may degrade to the template rewrite.
	ErrQuotaExceeded = errors.New("model quota exceeded")
	// ErrModelUnauthorized means the model provider rejected the API key.
	ErrModelUnauthorized = errors.New("model api key rejected")
	// ErrInsufficientOutput means the model answered with too little text to publish.
	ErrInsufficientOutput = errors.New("model returned insufficient content")
	// ErrRunInProgress means another pipeline run holds the run lock.
	ErrRunInProgress = errors.New("another pipeline run is in progress")
)

// Codes carried in the store API envelope. A 404 without one did not come
// from the store handlers.
const (
	CodeNoPendingArticle = "no_pending_article"
	CodeArticleNotFound  = "article_not_found"
	CodeAlreadyEnhanced  = "already_enhanced"
	CodeDuplicateArticle = "duplicate_article"
	CodeValidation       = "validation_failed"
)

// ErrorCode returns the envelope code for err, or "" when it has none.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNoPendingArticle):
		return CodeNoPendingArticle
	case errors.Is(err, ErrArticleNotFound):
		return CodeArticleNotFound
	case errors.Is(err, ErrAlreadyEnhanced):
		return CodeAlreadyEnhanced
	case errors.Is(err, ErrDuplicateArticle):
		return CodeDuplicateArticle
	default:
		return ""
	}
}

// ValidationError lists field-level messages reported by the store.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message != "" {
			return fmt.Sprintf("validation failed: %s", e.Message)
		}
		return "validation failed"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
