// Package config loads application configuration: defaults, then an
// optional TOML file, then NITI_* env vars (env wins).
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Tokenizer TokenizerConfig `toml:"tokenizer"`
	Store     StoreConfig     `toml:"store"`
	Ingest    IngestConfig    `toml:"ingest"`
	Query     QueryConfig     `toml:"query"`
	Server    ServerConfig    `toml:"server"`
	Observer  ObserverConfig  `toml:"observer"`
}

type LLMConfig struct {
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	Referer     string  `toml:"referer"`
	Title       string  `toml:"title"`
}

type EmbeddingConfig struct {
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

type TokenizerConfig struct {
	Encoding string `toml:"encoding"`
}

type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend     string `toml:"backend"`
	Path        string `toml:"path"`
	PostgresURL string `toml:"postgres_url"`
	Collection  string `toml:"collection"`
	Metric      string `toml:"metric"`
}

type IngestConfig struct {
	MaxTokens     int    `toml:"max_tokens"`
	OverlapTokens int    `toml:"overlap_tokens"`
	BatchSize     int    `toml:"batch_size"`
	DocumentDir   string `toml:"document_dir"`
	ArtifactDir   string `toml:"artifact_dir"`
}

type QueryConfig struct {
	TopK          int    `toml:"top_k"`
	ContextBudget int    `toml:"context_budget"`
	SystemPrompt  string `toml:"system_prompt"`
	Language      string `toml:"language"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type ObserverConfig struct {
	Enabled bool                       `toml:"enabled"`
	Pricing map[string]ObserverPricing `toml:"pricing"`
}

type ObserverPricing struct {
	Input  float64 `toml:"input"`
	Output float64 `toml:"output"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "https://openrouter.ai/api/v1",
			Temperature: 0.0,
			MaxTokens:   300,
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			BaseURL:    "https://api.openai.com/v1",
			Dimensions: 1536,
		},
		Tokenizer: TokenizerConfig{Encoding: "cl100k_base"},
		Store: StoreConfig{
			Backend:    "sqlite",
			Path:       "niti.db",
			Collection: "chunks",
			Metric:     "cosine",
		},
		Ingest: IngestConfig{
			MaxTokens:     512,
			OverlapTokens: 50,
			BatchSize:     32,
			DocumentDir:   "documents",
			ArtifactDir:   "artifacts",
		},
		Query: QueryConfig{
			TopK:          5,
			ContextBudget: 3000,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "niti.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("NITI_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("NITI_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("NITI_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("NITI_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("NITI_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("NITI_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("NITI_EMBEDDING_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimensions = n
		}
	}
	if v := os.Getenv("NITI_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("NITI_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("NITI_POSTGRES_URL"); v != "" {
		cfg.Store.PostgresURL = v
	}
	if v := os.Getenv("NITI_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("NITI_OBSERVER_ENABLED"); v == "true" || v == "1" {
		cfg.Observer.Enabled = true
	}

	// Fallbacks
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}

	return cfg
}
