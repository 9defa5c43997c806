package usecase

import (
	"context"
	"errors"
	"strings"

	"ArticleEnhancer/internal/domain"
)

// Diagnostic is the user-facing summary of a failed run.
type Diagnostic struct {
	Stage   Stage
	Message string
	Hint    string
}

// Diagnose translates a run error into a message and a one-line hint. Sentinel
// errors are matched first, then recognizable substrings.
func Diagnose(err error) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}

	d := Diagnostic{Message: err.Error()}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		d.Stage = stageErr.Stage
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNoPendingArticle):
		d.Message = "Nothing pending: every stored article is already enhanced."
		d.Hint = "Seed new articles with `articleenhancer seed` or create one through POST /api/articles."
	case errors.Is(err, domain.ErrRunInProgress):
		d.Message = "Another pipeline run holds the run lock."
		d.Hint = "Wait for it to finish; the lease expires on its own after the configured lock TTL."
	case errors.Is(err, domain.ErrAlreadyEnhanced):
		d.Message = "The article was published by another run before this one finished."
		d.Hint = "Run the pipeline again to enhance the next pending article."
	case errors.As(err, &verr):
		d.Message = "The store rejected the enhanced article: " + verr.Error()
		d.Hint = "Check the field errors above against the publish payload."
	case errors.Is(err, domain.ErrInsufficientOutput):
		d.Hint = "Check OPENAI_MODEL, or unset OPENAI_API_KEY to use the template rewrite."
	case errors.Is(err, domain.ErrStoreEndpoint):
		d.Message = "The store URL does not serve the article store API: " + err.Error()
		d.Hint = "Check STORE_API_URL (or --store-url); it must include the /api prefix, e.g. http://localhost:8000/api."
	case errors.Is(err, domain.ErrModelUnauthorized):
		d.Hint = "Check OPENAI_API_KEY; unset it to run with the template rewrite."
	case errors.Is(err, domain.ErrStoreUnavailable):
		d.Hint = "Is the article store running? Start it with `articleenhancer serve` and check STORE_API_URL."
	case errors.Is(err, context.DeadlineExceeded), containsAny(err, "timeout", "deadline exceeded"):
		d.Hint = "A network call timed out; raise REQUEST_TIMEOUT or check connectivity."
	case errors.Is(err, context.Canceled):
		d.Message = "Run cancelled."
		d.Hint = "The process received an interrupt; rerun when ready."
	case containsAny(err, "api key", "api_key", "unauthorized", "status 401"):
		d.Hint = "Check OPENAI_API_KEY; unset it to run with the template rewrite."
	case containsAny(err, "connection refused", "no such host"):
		d.Hint = "A service is unreachable; check STORE_API_URL and network access."
	default:
		d.Hint = "Re-run with --log-level debug for stage-by-stage details."
	}
	return d
}

func containsAny(err error, needles ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}
