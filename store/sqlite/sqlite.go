// Package sqlite implements niti.VectorStore using pure-Go SQLite with
// in-process brute-force vector search. Zero CGO required. Suited to
// corpora up to a few hundred thousand chunks; beyond that use the
// postgres store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	niti "github.com/farhanr/niti"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. When set, the store
// emits debug logs for every operation including timing and row counts.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store is a VectorStore backed by a local SQLite file, scoped to one
// collection. Embeddings are stored as JSON text and search runs
// in-process over all rows of the collection.
type Store struct {
	db         *sql.DB
	collection string
	dimension  int
	metric     niti.Distance
	logger     *slog.Logger
}

var _ niti.VectorStore = (*Store)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New opens (or creates) the collection in the SQLite file at dbPath.
// The dimension and metric are fixed on first creation; reopening an
// existing collection with different values fails rather than silently
// mixing vector spaces.
//
// The pool is capped at one connection so writers serialize through it,
// avoiding SQLITE_BUSY from concurrent connections.
func New(dbPath, collection string, dimension int, metric niti.Distance, opts ...StoreOption) (*Store, error) {
	if collection == "" {
		return nil, &niti.ErrConfig{Message: "collection name is required"}
	}
	if dimension <= 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("dimension must be positive, got %d", dimension)}
	}
	if metric != niti.DistanceCosine && metric != niti.DistanceL2 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("unknown distance metric %q", metric)}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:         db,
		collection: collection,
		dimension:  dimension,
		metric:     metric,
		logger:     nopLogger,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath, "collection", collection, "dimension", dimension)
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			metric TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding TEXT NOT NULL,
			document TEXT NOT NULL,
			source_file TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
	}
	for _, ddl := range tables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	_, _ = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_entries_collection ON entries(collection)`)

	var dim int
	var metric string
	err := s.db.QueryRowContext(ctx,
		`SELECT dimension, metric FROM collections WHERE name = ?`, s.collection,
	).Scan(&dim, &metric)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO collections (name, dimension, metric) VALUES (?, ?, ?)`,
			s.collection, s.dimension, string(s.metric),
		)
		if err != nil {
			return fmt.Errorf("register collection: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("lookup collection: %w", err)
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

// Upsert validates everything before opening the transaction, so a bad
// batch never partially lands.
func (s *Store) Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []niti.ChunkMetadata) error {
	start := time.Now()
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO entries (collection, id, embedding, document, source_file, chunk_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := niti.NowUnix()
	for i, id := range ids {
		_, err := stmt.ExecContext(ctx, s.collection, id,
			serializeEmbedding(vectors[i]), documents[i],
			metadatas[i].SourceFile, metadatas[i].ChunkIndex, now)
		if err != nil {
			return fmt.Errorf("upsert entry %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	s.logger.Debug("sqlite: upsert completed", "entries", len(ids), "duration", time.Since(start))
	return nil
}

// Query scans the whole collection and ranks by ascending distance.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]niti.RetrievalResult, error) {
	start := time.Now()
	if topK <= 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("top_k must be positive, got %d", topK)}
	}
	if len(vector) != s.dimension {
		return nil, &niti.ErrDimensionMismatch{Want: s.dimension, Got: len(vector)}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT embedding, document, source_file, chunk_index FROM entries WHERE collection = ?`,
		s.collection)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var results []niti.RetrievalResult
	for rows.Next() {
		var embJSON, document, sourceFile string
		var chunkIndex int
		if err := rows.Scan(&embJSON, &document, &sourceFile, &chunkIndex); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		stored, err := deserializeEmbedding(embJSON)
		if err != nil {
			return nil, fmt.Errorf("parse stored embedding: %w", err)
		}
		results = append(results, niti.RetrievalResult{
			Content:  document,
			Metadata: niti.ChunkMetadata{SourceFile: sourceFile, ChunkIndex: chunkIndex},
			Distance: s.distance(vector, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > topK {
		results = results[:topK]
	}
	s.logger.Debug("sqlite: query completed", "results", len(results), "top_k", topK, "duration", time.Since(start))
	return results, nil
}

// Reset deletes all entries of the collection. The collection row and its
// dimension stay.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE collection = ?`, s.collection)
	if err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}
	s.logger.Info("sqlite: collection reset", "collection", s.collection)
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE collection = ?`, s.collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) distance(a, b []float32) float32 {
	if s.metric == niti.DistanceL2 {
		return l2Distance(a, b)
	}
	return 1 - cosineSimilarity(a, b)
}

// --- Vector math ---

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}

// l2Distance computes the Euclidean distance between two vectors.
func l2Distance(a, b []float32) float32 {
	if len(a) != len(b) {
		return float32(math.Inf(1))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// serializeEmbedding converts []float32 to a JSON array string.
func serializeEmbedding(embedding []float32) string {
	data, _ := json.Marshal(embedding)
	return string(data)
}

// deserializeEmbedding parses a JSON array string back to []float32.
func deserializeEmbedding(s string) ([]float32, error) {
	var v []float32
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
