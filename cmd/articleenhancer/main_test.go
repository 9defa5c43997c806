package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ArticleEnhancer/internal/domain"
)

func TestRunReportsNothingPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/articles/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"code":"no_pending_article","message":"No pending articles"}`))
	}))
	defer server.Close()

	t.Setenv("ARTICLE_ENHANCER_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SERPAPI_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"run", "--store-url", server.URL + "/api", "--log-level", "error"})

	err := cmd.ExecuteContext(context.Background())
	if !errors.Is(err, domain.ErrNoPendingArticle) {
		t.Fatalf("expected ErrNoPendingArticle, got %v", err)
	}

	var out bytes.Buffer
	report(&out, err)
	if !strings.Contains(out.String(), "error (fetch): Nothing pending") || !strings.Contains(out.String(), "hint: ") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

func TestRootRejectsUnknownCommand(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"enhance-everything"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error for an unknown command")
	}
}
