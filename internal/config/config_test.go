package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RAG_EVAL_ORIGINAL_URL", "")
	t.Setenv("RAG_EVAL_RERANKED_URL", "")

	path := writeConfig(t, `
retrieval:
  original_url: "http://localhost:3000"
  reranked_url: "http://localhost:3001"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLM.DefaultProvider != "claude" {
		t.Errorf("default provider = %q", cfg.LLM.DefaultProvider)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Errorf("top_k = %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Retrieval.Timeout)
	}
	if cfg.Evaluation.PrecisionK != 5 {
		t.Errorf("precision_k = %d", cfg.Evaluation.PrecisionK)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding model = %q", cfg.Embedding.Model)
	}
	if cfg.DataDir != "data" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("RAG_EVAL_ORIGINAL_URL", "http://orig.example")
	t.Setenv("RAG_EVAL_RERANKED_URL", "http://rer.example")

	path := writeConfig(t, `
retrieval:
  original_url: "http://localhost:3000"
  reranked_url: "http://localhost:3001"
llm:
  providers:
    claude:
      model: claude-sonnet-4-5-20250929
    openai:
      model: gpt-4o
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLM.Providers["claude"].APIKey != "anthropic-key" {
		t.Errorf("claude key = %q", cfg.LLM.Providers["claude"].APIKey)
	}
	if cfg.LLM.Providers["openai"].APIKey != "openai-key" {
		t.Errorf("openai key = %q", cfg.LLM.Providers["openai"].APIKey)
	}
	if cfg.Embedding.APIKey != "openai-key" {
		t.Errorf("embedding key = %q (should inherit the OpenAI key)", cfg.Embedding.APIKey)
	}
	if cfg.Retrieval.OriginalURL != "http://orig.example" {
		t.Errorf("original url = %q", cfg.Retrieval.OriginalURL)
	}
	if cfg.Retrieval.RerankedURL != "http://rer.example" {
		t.Errorf("reranked url = %q", cfg.Retrieval.RerankedURL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "retrieval: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
