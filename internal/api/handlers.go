package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type handlers struct {
	repo    ports.ArticleRepository
	metrics *Metrics
	logger  *slog.Logger
}

func ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

func fail(c *gin.Context, status int, message string, fields map[string][]string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Errors: fields})
}

// failWith answers with the envelope code of err so clients can match on it.
func failWith(c *gin.Context, status int, err error, message string, fields map[string][]string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Code: domain.ErrorCode(err), Message: message, Errors: fields})
}

// respondError maps domain errors onto HTTP statuses.
func (h *handlers) respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		failWith(c, http.StatusUnprocessableEntity, err, verr.Message, verr.Fields)
	case errors.Is(err, domain.ErrNoPendingArticle):
		failWith(c, http.StatusNotFound, err, "No pending articles", nil)
	case errors.Is(err, domain.ErrArticleNotFound):
		failWith(c, http.StatusNotFound, err, "Article not found", nil)
	case errors.Is(err, domain.ErrAlreadyEnhanced):
		failWith(c, http.StatusConflict, err, "Article already enhanced", nil)
	case errors.Is(err, domain.ErrDuplicateArticle):
		failWith(c, http.StatusConflict, err, "Article with this original_url already exists", nil)
	default:
		if h.logger != nil {
			h.logger.Error("store request failed", "path", c.Request.URL.Path, "error", err)
		}
		fail(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func (h *handlers) bind(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		fail(c, http.StatusBadRequest, "Malformed JSON body", nil)
		return false
	}
	if err := check(payload); err != nil {
		h.respondError(c, err)
		return false
	}
	return true
}

func articleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		failWith(c, http.StatusNotFound, domain.ErrArticleNotFound, "Article not found", nil)
		return 0, false
	}
	return id, true
}

func (h *handlers) list(c *gin.Context) {
	filter := domain.ArticleFilter{Query: c.Query("q")}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if raw, present := c.GetQuery("is_ai_updated"); present {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(c, &domain.ValidationError{
				Message: "Validation failed",
				Fields:  map[string][]string{"is_ai_updated": {"is_ai_updated must be true or false"}},
			})
			return
		}
		filter.IsAIUpdated = &v
	}

	page, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, page, "")
}

func (h *handlers) latest(c *gin.Context) {
	article, err := h.repo.LatestPending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, article, "")
}

func (h *handlers) get(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}
	article, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, article, "")
}

func (h *handlers) create(c *gin.Context) {
	var req createArticleRequest
	if !h.bind(c, &req) {
		return
	}

	article, err := h.repo.Create(c.Request.Context(), domain.Article{
		Title:       req.Title,
		Content:     req.Content,
		OriginalURL: req.OriginalURL,
		ScrapedAt:   req.ScrapedAt,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, article, "Article created")
}

func (h *handlers) update(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}
	var req updateArticleRequest
	if !h.bind(c, &req) {
		return
	}

	article, err := h.repo.Update(c.Request.Context(), id, domain.ArticleUpdate{
		Title:       req.Title,
		Content:     req.Content,
		OriginalURL: req.OriginalURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, article, "Article updated")
}

func (h *handlers) delete(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, nil, "Article deleted")
}

func (h *handlers) publish(c *gin.Context) {
	id, valid := articleID(c)
	if !valid {
		return
	}
	var req publishRequest
	if !h.bind(c, &req) {
		return
	}

	article, err := h.repo.Publish(c.Request.Context(), id, req.AIContent, req.Citations)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.published.Inc()
	if h.logger != nil {
		h.logger.Info("article published", "id", id, "citations", len(req.Citations))
	}
	ok(c, http.StatusOK, article, "Article enhanced")
}
