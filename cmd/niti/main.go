package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	niti "github.com/farhanr/niti"
	"github.com/farhanr/niti/ingest"
	"github.com/farhanr/niti/internal/config"
	"github.com/farhanr/niti/internal/server"
	"github.com/farhanr/niti/observer"
	"github.com/farhanr/niti/provider/openaicompat"
	"github.com/farhanr/niti/store/postgres"
	"github.com/farhanr/niti/store/sqlite"
	"github.com/farhanr/niti/tokenizer/tiktoken"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	_ = godotenv.Load() // silently ignore if .env doesn't exist

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// 1. Load config
	cfg := config.Load(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Observer (optional)
	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		pricing := make(map[string]observer.ModelPricing, len(cfg.Observer.Pricing))
		for model, p := range cfg.Observer.Pricing {
			pricing[model] = observer.ModelPricing{InputPerMillion: p.Input, OutputPerMillion: p.Output}
		}
		var shutdown func(context.Context) error
		var err error
		inst, shutdown, err = observer.Init(ctx, pricing)
		if err != nil {
			logger.Error("observer init failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	// 3. Tokenizer
	tok, err := tiktoken.New(cfg.Tokenizer.Encoding)
	if err != nil {
		logger.Error("tokenizer init failed", "error", err)
		os.Exit(1)
	}

	// 4. Providers
	var embedder niti.EmbeddingProvider
	embedder, err = openaicompat.NewEmbedding(
		cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimensions,
		openaicompat.WithLogger(logger),
	)
	if err != nil {
		logger.Error("embedding provider init failed", "error", err)
		os.Exit(1)
	}

	providerOpts := []openaicompat.Option{
		openaicompat.WithTemperature(cfg.LLM.Temperature),
		openaicompat.WithMaxTokens(cfg.LLM.MaxTokens),
		openaicompat.WithLogger(logger),
	}
	if cfg.LLM.Referer != "" {
		providerOpts = append(providerOpts, openaicompat.WithReferer(cfg.LLM.Referer))
	}
	if cfg.LLM.Title != "" {
		providerOpts = append(providerOpts, openaicompat.WithTitle(cfg.LLM.Title))
	}
	var provider niti.Provider = openaicompat.NewProvider(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, providerOpts...)

	// 5. Vector store
	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if inst != nil {
		provider = observer.WrapProvider(provider, cfg.LLM.Model, inst)
		embedder = observer.WrapEmbedding(embedder, cfg.Embedding.Model, inst)
		store = observer.WrapStore(store, inst)
	}

	// 6. Answerer
	answererOpts := []niti.AnswererOption{
		niti.WithTopK(cfg.Query.TopK),
		niti.WithContextBudget(cfg.Query.ContextBudget),
		niti.WithLogger(logger),
	}
	if cfg.Query.SystemPrompt != "" {
		answererOpts = append(answererOpts, niti.WithSystemPrompt(cfg.Query.SystemPrompt))
	}
	if cfg.Query.Language != "" {
		answererOpts = append(answererOpts, niti.WithAnswerLanguage(cfg.Query.Language))
	}
	answerer, err := niti.NewAnswerer(embedder, store, provider, tok, answererOpts...)
	if err != nil {
		logger.Error("answerer init failed", "error", err)
		os.Exit(1)
	}

	// 7. Ingestion path for POST /documents
	ingestFn, err := buildIngestFunc(cfg, tok, embedder, store, logger)
	if err != nil {
		logger.Error("ingestor init failed", "error", err)
		os.Exit(1)
	}

	// 8. HTTP server
	srv, err := server.New(answerer, store,
		server.WithIngestFunc(ingestFn),
		server.WithLogger(logger),
	)
	if err != nil {
		logger.Error("server init failed", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.Server.Addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}

// buildStore picks the vector store backend from config. Postgres uses
// pgvector and needs Init to create the collection table; sqlite creates
// its schema on open.
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

// poolClosingStore ties the pgx pool lifetime to the store since main owns
// both.
type poolClosingStore struct {
	*postgres.Store
	pool *pgxpool.Pool
}

func (p poolClosingStore) Close() error {
	p.pool.Close()
	return nil
}

// buildIngestFunc wires a full re-ingestion of the configured document
// directory, replacing the stored collection.
func buildIngestFunc(cfg config.Config, tok niti.Tokenizer, embedder niti.EmbeddingProvider, store niti.VectorStore, logger *slog.Logger) (server.IngestFunc, error) {
	chunker, err := ingest.NewChunker(tok,
		ingest.WithMaxTokens(cfg.Ingest.MaxTokens),
		ingest.WithOverlapTokens(cfg.Ingest.OverlapTokens),
	)
	if err != nil {
		return nil, err
	}
	pipeline, err := ingest.NewPipeline(embedder,
		ingest.WithBatchSize(cfg.Ingest.BatchSize),
		ingest.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	ingestor, err := ingest.NewIngestor(chunker, pipeline, store,
		ingest.WithArtifactDir(cfg.Ingest.ArtifactDir),
		ingest.WithReset(true),
		ingest.WithIngestLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (ingest.Result, error) {
		docs, err := ingest.LoadDirectory(cfg.Ingest.DocumentDir)
		if err != nil {
			return ingest.Result{}, err
		}
		return ingestor.Ingest(ctx, docs)
	}, nil
}
