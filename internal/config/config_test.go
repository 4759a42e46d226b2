package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Ingest.MaxTokens != 512 || cfg.Ingest.OverlapTokens != 50 {
		t.Errorf("chunking defaults = %d/%d, want 512/50", cfg.Ingest.MaxTokens, cfg.Ingest.OverlapTokens)
	}
	if cfg.Query.TopK != 5 || cfg.Query.ContextBudget != 3000 {
		t.Errorf("query defaults = %d/%d, want 5/3000", cfg.Query.TopK, cfg.Query.ContextBudget)
	}
	if cfg.LLM.Temperature != 0.0 || cfg.LLM.MaxTokens != 300 {
		t.Errorf("llm defaults = %v/%d, want 0.0/300", cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Metric != "cosine" {
		t.Errorf("store defaults = %q/%q", cfg.Store.Backend, cfg.Store.Metric)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "niti.toml")
	content := `
[llm]
model = "gpt-4.1-mini"
max_tokens = 500

[ingest]
max_tokens = 256
overlap_tokens = 25

[query]
top_k = 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Load(path)
	if cfg.LLM.Model != "gpt-4.1-mini" || cfg.LLM.MaxTokens != 500 {
		t.Errorf("llm = %q/%d", cfg.LLM.Model, cfg.LLM.MaxTokens)
	}
	if cfg.Ingest.MaxTokens != 256 || cfg.Ingest.OverlapTokens != 25 {
		t.Errorf("ingest = %d/%d", cfg.Ingest.MaxTokens, cfg.Ingest.OverlapTokens)
	}
	if cfg.Query.TopK != 10 {
		t.Errorf("top_k = %d", cfg.Query.TopK)
	}
	// Untouched sections keep defaults.
	if cfg.Query.ContextBudget != 3000 {
		t.Errorf("context_budget = %d, want default 3000", cfg.Query.ContextBudget)
	}
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "niti.toml")
	if err := os.WriteFile(path, []byte("[llm]\napi_key = \"from-file\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("NITI_LLM_API_KEY", "from-env")
	t.Setenv("NITI_EMBEDDING_DIMENSIONS", "384")

	cfg := Load(path)
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("api_key = %q, want env value", cfg.LLM.APIKey)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if cfg.Store.Path != "niti.db" {
		t.Errorf("store path = %q, want default", cfg.Store.Path)
	}
}

func TestEmbeddingKeyFallsBackToLLMKey(t *testing.T) {
	t.Setenv("NITI_LLM_API_KEY", "shared-key")
	cfg := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if cfg.Embedding.APIKey != "shared-key" {
		t.Errorf("embedding api_key = %q, want llm fallback", cfg.Embedding.APIKey)
	}
}
