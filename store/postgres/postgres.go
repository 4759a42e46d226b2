// Package postgres implements niti.VectorStore using PostgreSQL with
// pgvector for native vector similarity search.
//
// The Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	niti "github.com/farhanr/niti"
)

// StoreOption configures a PostgreSQL Store.
type StoreOption func(*Store)

// WithHNSWM sets the HNSW m parameter (max connections per node). Higher
// values improve recall at the cost of memory. Default: pgvector's 16.
// Only affects index creation.
func WithHNSWM(m int) StoreOption {
	return func(s *Store) { s.hnswM = m }
}

// WithEFConstruction sets the HNSW ef_construction parameter (build-time
// candidate list size). Default: pgvector's 64. Only affects index creation.
func WithEFConstruction(ef int) StoreOption {
	return func(s *Store) { s.hnswEFConstruction = ef }
}

// WithLogger sets a structured logger for the store.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store is a VectorStore backed by PostgreSQL with pgvector, scoped to one
// collection. Each collection gets its own table with a typed vector(N)
// column and an HNSW index matching the collection's metric.
type Store struct {
	pool       *pgxpool.Pool
	collection string
	dimension  int
	metric     niti.Distance
	logger     *slog.Logger

	hnswM              int
	hnswEFConstruction int
}

var _ niti.VectorStore = (*Store)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Collection names become table identifiers, so they are restricted to a
// safe subset rather than quoted.
var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// New creates a Store over an existing pool. Call Init before first use.
// The caller owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool, collection string, dimension int, metric niti.Distance, opts ...StoreOption) (*Store, error) {
	if pool == nil {
		return nil, &niti.ErrConfig{Message: "pgx pool is required"}
	}
	if !collectionName.MatchString(collection) {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("collection name %q must match %s", collection, collectionName)}
	}
	if dimension <= 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("dimension must be positive, got %d", dimension)}
	}
	if metric != niti.DistanceCosine && metric != niti.DistanceL2 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("unknown distance metric %q", metric)}
	}
	s := &Store{
		pool:       pool,
		collection: collection,
		dimension:  dimension,
		metric:     metric,
		logger:     nopLogger,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Store) table() string { return "entries_" + s.collection }

// distanceOp is pgvector's operator for the collection metric.
func (s *Store) distanceOp() string {
	if s.metric == niti.DistanceL2 {
		return "<->"
	}
	return "<=>"
}

func (s *Store) opClass() string {
	if s.metric == niti.DistanceL2 {
		return "vector_l2_ops"
	}
	return "vector_cosine_ops"
}

func (s *Store) hnswWithClause() string {
	var parts []string
	if s.hnswM > 0 {
		parts = append(parts, fmt.Sprintf("m = %d", s.hnswM))
	}
	if s.hnswEFConstruction > 0 {
		parts = append(parts, fmt.Sprintf("ef_construction = %d", s.hnswEFConstruction))
	}
	if len(parts) == 0 {
		return ""
	}
	return " WITH (" + strings.Join(parts, ", ") + ")"
}

// Init creates the pgvector extension, the collection registry, the
// collection's table and its HNSW index. Safe to call multiple times.
// Reopening a collection with a different dimension or metric fails.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			metric TEXT NOT NULL
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			document TEXT NOT NULL,
			source_file TEXT NOT NULL,
			chunk_index INTEGER NOT NULL
		)`, s.table(), s.dimension),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding %s)%s`,
			s.table(), s.table(), s.opClass(), s.hnswWithClause()),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}

	var dim int
	var metric string
	err := s.pool.QueryRow(ctx,
		`SELECT dimension, metric FROM collections WHERE name = $1`, s.collection,
	).Scan(&dim, &metric)
	if err != nil {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO collections (name, dimension, metric) VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO NOTHING`,
			s.collection, s.dimension, string(s.metric))
		if err != nil {
			return fmt.Errorf("postgres: register collection: %w", err)
		}
		return nil
	}
	if dim != s.dimension {
		return &niti.ErrConsistency{
			Message: fmt.Sprintf("collection %q has dimension %d, requested %d", s.collection, dim, s.dimension),
		}
	}
	if metric != string(s.metric) {
		return &niti.ErrConsistency{
			Message: fmt.Sprintf("collection %q uses metric %q, requested %q", s.collection, metric, s.metric),
		}
	}
	return nil
}

// Upsert validates the whole batch, then writes it in one transaction.
func (s *Store) Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []niti.ChunkMetadata) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metadatas) {
		return &niti.ErrConsistency{
			Message: fmt.Sprintf("upsert lengths disagree: %d ids, %d vectors, %d documents, %d metadatas",
				len(ids), len(vectors), len(documents), len(metadatas)),
		}
	}
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return &niti.ErrConsistency{Message: fmt.Sprintf("duplicate id %q in upsert batch", id)}
		}
		seen[id] = struct{}{}
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("vector %d: %w", i, &niti.ErrDimensionMismatch{Want: s.dimension, Got: len(v)})
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin upsert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stmt := fmt.Sprintf(
		`INSERT INTO %s (id, embedding, document, source_file, chunk_index)
		 VALUES ($1, $2::vector, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   embedding = EXCLUDED.embedding,
		   document = EXCLUDED.document,
		   source_file = EXCLUDED.source_file,
		   chunk_index = EXCLUDED.chunk_index`, s.table())
	for i, id := range ids {
		_, err := tx.Exec(ctx, stmt, id, vectorLiteral(vectors[i]), documents[i],
			metadatas[i].SourceFile, metadatas[i].ChunkIndex)
		if err != nil {
			return fmt.Errorf("postgres: upsert entry %q: %w", id, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit upsert: %w", err)
	}
	s.logger.Debug("postgres: upsert completed", "entries", len(ids))
	return nil
}

// Query ranks by the collection's distance operator, ascending, using the
// HNSW index.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]niti.RetrievalResult, error) {
	if topK <= 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("top_k must be positive, got %d", topK)}
	}
	if len(vector) != s.dimension {
		return nil, &niti.ErrDimensionMismatch{Want: s.dimension, Got: len(vector)}
	}

	query := fmt.Sprintf(
		`SELECT document, source_file, chunk_index, embedding %s $1::vector AS distance
		 FROM %s
		 ORDER BY embedding %s $1::vector
		 LIMIT $2`, s.distanceOp(), s.table(), s.distanceOp())
	rows, err := s.pool.Query(ctx, query, vectorLiteral(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("postgres: query entries: %w", err)
	}
	defer rows.Close()

	var results []niti.RetrievalResult
	for rows.Next() {
		var r niti.RetrievalResult
		if err := rows.Scan(&r.Content, &r.Metadata.SourceFile, &r.Metadata.ChunkIndex, &r.Distance); err != nil {
			return nil, fmt.Errorf("postgres: scan entry: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate entries: %w", err)
	}
	return results, nil
}

// Reset removes all entries. The collection registration and its dimension
// stay.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table())); err != nil {
		return fmt.Errorf("postgres: reset collection: %w", err)
	}
	s.logger.Info("postgres: collection reset", "collection", s.collection)
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table())).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count entries: %w", err)
	}
	return n, nil
}

// Close is a no-op: the pool is owned by the caller.
func (s *Store) Close() error { return nil }

// vectorLiteral renders a []float32 as pgvector's input format, which is
// the same as a JSON array.
func vectorLiteral(v []float32) string {
	data, _ := json.Marshal(v)
	return string(data)
}
