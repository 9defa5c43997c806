package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(openAIKeyEnv, "")
	t.Setenv(searchKeyEnv, "")

	cfg := Load("")

	if cfg.References.Count != 2 {
		t.Fatalf("expected default reference count 2, got %d", cfg.References.Count)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.HTTP.Timeout)
	}
	if cfg.OpenAI.APIKey != "" || cfg.Search.APIKey != "" {
		t.Fatalf("credentials must be empty by default")
	}
	if cfg.OpenAI.Temperature != 0.7 || cfg.OpenAI.MaxTokens != 2000 {
		t.Fatalf("unexpected model params: %+v", cfg.OpenAI)
	}
	if len(cfg.References.Curated) < 2 {
		t.Fatalf("expected curated references, got %d", len(cfg.References.Curated))
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
store:
  baseUrl: http://store.internal/api
references:
  count: 4
  fetchDelay: 500ms
  curated:
    - title: Only
      url: https://example.org/only
openai:
  model: gpt-test
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(referenceCountEnv, "3")
	t.Setenv(requestTimeoutEnv, "45")
	t.Setenv(openAIKeyEnv, "sk-test")

	cfg := Load(path)

	if cfg.Store.BaseURL != "http://store.internal/api" {
		t.Fatalf("unexpected store url: %s", cfg.Store.BaseURL)
	}
	if cfg.References.Count != 3 {
		t.Fatalf("env must win over file, got %d", cfg.References.Count)
	}
	if cfg.References.FetchDelay != 500*time.Millisecond {
		t.Fatalf("unexpected fetch delay: %s", cfg.References.FetchDelay)
	}
	if cfg.HTTP.Timeout != 45*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.HTTP.Timeout)
	}
	if len(cfg.References.Curated) != 1 || cfg.References.Curated[0].URL != "https://example.org/only" {
		t.Fatalf("unexpected curated list: %+v", cfg.References.Curated)
	}
	if cfg.OpenAI.Model != "gpt-test" || cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("unexpected openai config: %+v", cfg.OpenAI)
	}
	if cfg.OpenAI.MaxTokens != 2000 {
		t.Fatalf("defaults must survive partial files, got %d", cfg.OpenAI.MaxTokens)
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Duration{
		"30":    30 * time.Second,
		"1m30s": 90 * time.Second,
		" 2s ":  2 * time.Second,
	}
	for in, want := range cases {
		got, ok := parseDuration(in)
		if !ok || got != want {
			t.Fatalf("parseDuration(%q) = %s, %v; want %s", in, got, ok, want)
		}
	}

	for _, bad := range []string{"", "abc", "-5", "0"} {
		if _, ok := parseDuration(bad); ok {
			t.Fatalf("parseDuration(%q) should fail", bad)
		}
	}
}
