package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	niti "github.com/farhanr/niti"
)

// Ingestor runs the full ingestion flow: chunk the corpus, embed every
// chunk, optionally persist the artifacts, and load everything into the
// vector store in one upsert. Any failure before the upsert leaves the
// store untouched.
type Ingestor struct {
	chunker  *Chunker
	pipeline *Pipeline
	store    niti.VectorStore

	artifactDir string
	reset       bool
	logger      *slog.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithArtifactDir persists chunk sets, the source map and the embedding
// matrix to dir before loading the store.
func WithArtifactDir(dir string) IngestorOption {
	return func(i *Ingestor) { i.artifactDir = dir }
}

// WithReset clears the collection before loading, so the store ends up
// holding exactly this run's corpus.
func WithReset(reset bool) IngestorOption {
	return func(i *Ingestor) { i.reset = reset }
}

// WithIngestLogger sets the logger. Defaults to a no-op logger.
func WithIngestLogger(l *slog.Logger) IngestorOption {
	return func(i *Ingestor) { i.logger = l }
}

// NewIngestor wires the chunker, embedding pipeline and store together.
func NewIngestor(chunker *Chunker, pipeline *Pipeline, store niti.VectorStore, opts ...IngestorOption) (*Ingestor, error) {
	if chunker == nil || pipeline == nil || store == nil {
		return nil, &niti.ErrConfig{Message: "chunker, pipeline and store are required"}
	}
	ing := &Ingestor{
		chunker:  chunker,
		pipeline: pipeline,
		store:    store,
		logger:   nopLogger,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing, nil
}

// Result summarizes one ingestion run.
type Result struct {
	Documents int
	Chunks    int
	Dimension int
}

// Ingest processes docs end to end. Document order determines embedding
// indexes, so callers must pass a stable order (LoadDirectory already
// sorts).
func (ing *Ingestor) Ingest(ctx context.Context, docs []niti.Document) (Result, error) {
	chunkSets, err := ing.chunker.ChunkAll(docs)
	if err != nil {
		return Result{}, err
	}
	sourceMap := BuildSourceMap(chunkSets)
	if len(sourceMap) == 0 {
		return Result{}, &niti.ErrConfig{Message: "no chunks produced, nothing to ingest"}
	}

	flat := make([]niti.Chunk, 0, len(sourceMap))
	for _, set := range chunkSets {
		flat = append(flat, set...)
	}
	ing.logger.Info("chunked corpus", "documents", len(docs), "chunks", len(flat))

	vectors, err := ing.pipeline.EmbedChunks(ctx, flat)
	if err != nil {
		return Result{}, err
	}
	matrix := EmbeddingMatrix{Dimension: ing.pipeline.embedder.Dimensions(), Vectors: vectors}
	if err := sourceMap.Validate(matrix.Rows()); err != nil {
		return Result{}, err
	}

	if ing.artifactDir != "" {
		if err := SaveArtifacts(ing.artifactDir, chunkSets, sourceMap, matrix); err != nil {
			return Result{}, err
		}
		ing.logger.Info("saved artifacts", "dir", ing.artifactDir)
	}

	if err := ing.load(ctx, flat, sourceMap, matrix); err != nil {
		return Result{}, err
	}
	return Result{Documents: len(docs), Chunks: len(flat), Dimension: matrix.Dimension}, nil
}

// Load pushes previously persisted artifacts into the store without
// re-embedding. Chunk texts are reloaded from the per-document chunk files
// named by the source map.
func (ing *Ingestor) Load(ctx context.Context, dir string) (Result, error) {
	sourceMap, matrix, err := LoadArtifacts(dir)
	if err != nil {
		return Result{}, err
	}

	// Rebuild the flat chunk list in embedding-index order.
	chunksByFile := make(map[string][]niti.Chunk)
	flat := make([]niti.Chunk, 0, len(sourceMap))
	docs := 0
	for _, entry := range sourceMap {
		set, ok := chunksByFile[entry.SourceFile]
		if !ok {
			set, err = LoadChunkSet(dir, entry.SourceFile)
			if err != nil {
				return Result{}, err
			}
			chunksByFile[entry.SourceFile] = set
			docs++
		}
		if entry.ChunkIndex >= len(set) {
			return Result{}, &niti.ErrConsistency{
				Message: fmt.Sprintf("%s chunk file has %d chunks, source map references index %d", entry.SourceFile, len(set), entry.ChunkIndex),
			}
		}
		flat = append(flat, set[entry.ChunkIndex])
	}

	if err := ing.load(ctx, flat, sourceMap, matrix); err != nil {
		return Result{}, err
	}
	return Result{Documents: docs, Chunks: len(flat), Dimension: matrix.Dimension}, nil
}

// load resets if requested, then upserts everything in one call so the
// store's own validation keeps the write all-or-nothing.
func (ing *Ingestor) load(ctx context.Context, chunks []niti.Chunk, sourceMap SourceMap, matrix EmbeddingMatrix) error {
	if ing.reset {
		if err := ing.store.Reset(ctx); err != nil {
			return fmt.Errorf("reset collection: %w", err)
		}
		ing.logger.Info("reset collection")
	}

	ids := make([]string, len(sourceMap))
	documents := make([]string, len(sourceMap))
	metadatas := make([]niti.ChunkMetadata, len(sourceMap))
	for i, entry := range sourceMap {
		ids[i] = strconv.Itoa(entry.EmbeddingIndex)
		documents[i] = chunks[i].Text
		metadatas[i] = niti.ChunkMetadata{
			SourceFile: entry.SourceFile,
			ChunkIndex: entry.ChunkIndex,
		}
	}

	if err := ing.store.Upsert(ctx, ids, matrix.Vectors, documents, metadatas); err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	ing.logger.Info("loaded store", "entries", len(ids), "dimension", matrix.Dimension)
	return nil
}
