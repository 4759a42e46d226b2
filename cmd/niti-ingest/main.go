// Command niti-ingest chunks, embeds, and stores a document corpus. With
// -from-artifacts it loads previously saved chunk and embedding files
// instead of calling the embedding API again.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	niti "github.com/farhanr/niti"
	"github.com/farhanr/niti/ingest"
	"github.com/farhanr/niti/internal/config"
	"github.com/farhanr/niti/provider/openaicompat"
	"github.com/farhanr/niti/store/postgres"
	"github.com/farhanr/niti/store/sqlite"
	"github.com/farhanr/niti/tokenizer/tiktoken"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	dir := flag.String("dir", "", "document directory (overrides config)")
	artifacts := flag.String("artifacts", "", "artifact directory (overrides config)")
	reset := flag.Bool("reset", true, "clear the collection before loading")
	fromArtifacts := flag.Bool("from-artifacts", false, "load saved artifacts instead of re-embedding")
	flag.Parse()

	_ = godotenv.Load() // silently ignore if .env doesn't exist

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// 1. Load config, apply flag overrides
	cfg := config.Load(*configPath)
	if *dir != "" {
		cfg.Ingest.DocumentDir = *dir
	}
	if *artifacts != "" {
		cfg.Ingest.ArtifactDir = *artifacts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Tokenizer + embedding provider
	tok, err := tiktoken.New(cfg.Tokenizer.Encoding)
	if err != nil {
		logger.Error("tokenizer init failed", "error", err)
		os.Exit(1)
	}
	embedder, err := openaicompat.NewEmbedding(
		cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimensions,
		openaicompat.WithLogger(logger),
	)
	if err != nil {
		logger.Error("embedding provider init failed", "error", err)
		os.Exit(1)
	}

	// 3. Vector store
	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// 4. Ingestor
	chunker, err := ingest.NewChunker(tok,
		ingest.WithMaxTokens(cfg.Ingest.MaxTokens),
		ingest.WithOverlapTokens(cfg.Ingest.OverlapTokens),
	)
	if err != nil {
		logger.Error("chunker init failed", "error", err)
		os.Exit(1)
	}
	pipeline, err := ingest.NewPipeline(embedder,
		ingest.WithBatchSize(cfg.Ingest.BatchSize),
		ingest.WithLogger(logger),
	)
	if err != nil {
		logger.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}
	ingestor, err := ingest.NewIngestor(chunker, pipeline, store,
		ingest.WithArtifactDir(cfg.Ingest.ArtifactDir),
		ingest.WithReset(*reset),
		ingest.WithIngestLogger(logger),
	)
	if err != nil {
		logger.Error("ingestor init failed", "error", err)
		os.Exit(1)
	}

	// 5. Run
	var result ingest.Result
	if *fromArtifacts {
		result, err = ingestor.Load(ctx, cfg.Ingest.ArtifactDir)
	} else {
		var docs []niti.Document
		docs, err = ingest.LoadDirectory(cfg.Ingest.DocumentDir)
		if err == nil {
			result, err = ingestor.Ingest(ctx, docs)
		}
	}
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"dimension", result.Dimension,
	)
}

func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (niti.VectorStore, error) {
	metric := niti.Distance(cfg.Store.Metric)
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.PostgresURL)
		if err != nil {
			return nil, err
		}
		st, err := postgres.New(pool, cfg.Store.Collection, cfg.Embedding.Dimensions, metric,
			postgres.WithLogger(logger))
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := st.Init(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return poolClosingStore{Store: st, pool: pool}, nil
	default:
		return sqlite.New(cfg.Store.Path, cfg.Store.Collection, cfg.Embedding.Dimensions, metric,
			sqlite.WithLogger(logger))
	}
}

type poolClosingStore struct {
	*postgres.Store
	pool *pgxpool.Pool
}

func (p poolClosingStore) Close() error {
	p.pool.Close()
	return nil
}
