package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ArticleEnhancer/internal/api"
	"ArticleEnhancer/internal/infrastructure/storage"
	"ArticleEnhancer/internal/ports"
)

// Serve runs the article store API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	repo, closeRepo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterDeps{
		Repo:   repo,
		Logger: a.logger.With("component", "api"),
	})

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("article store listening", "addr", a.cfg.Server.Addr, "driver", a.cfg.Database.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("article store stopped")
	return nil
}

func (a *Application) openRepository(ctx context.Context) (ports.ArticleRepository, func(), error) {
	if strings.EqualFold(a.cfg.Database.Driver, "memory") {
		return storage.NewMemoryRepository(), func() {}, nil
	}

	db, err := storage.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("close database failed", "error", err)
		}
	}
	return storage.NewArticleRepository(db), closeFn, nil
}
