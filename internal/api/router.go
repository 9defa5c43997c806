// Package api serves the article store over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ArticleEnhancer/internal/ports"
)

// RouterDeps lists collaborators of the store API.
type RouterDeps struct {
	Repo    ports.ArticleRepository
	Metrics *Metrics
	Logger  *slog.Logger
}

// NewRouter builds the gin engine with every store route registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger), deps.Metrics.middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{})))

	h := &handlers{repo: deps.Repo, metrics: deps.Metrics, logger: deps.Logger}
	articles := router.Group("/api/articles")
	{
		articles.GET("", h.list)
		articles.POST("", h.create)
		articles.GET("/latest", h.latest)
		articles.GET("/:id", h.get)
		articles.PUT("/:id", h.update)
		articles.DELETE("/:id", h.delete)
		articles.POST("/:id/publish-ai", h.publish)
	}

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found", nil)
	})
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if logger == nil {
			return
		}
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
