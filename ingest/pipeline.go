package ingest

import (
	"context"
	"fmt"
	"log/slog"

	niti "github.com/farhanr/niti"
)

// DefaultBatchSize is the sub-batch size for embedding calls.
const DefaultBatchSize = 32

// Pipeline embeds chunk texts in order-preserving sub-batches. A run is
// all-or-nothing: any sub-batch failure aborts the run and no partial
// matrix is returned, so artifacts can never be written half-embedded.
type Pipeline struct {
	embedder  niti.EmbeddingProvider
	batchSize int
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBatchSize sets how many texts go into one embedding call.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) { p.batchSize = n }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates an embedding pipeline around embedder.
func NewPipeline(embedder niti.EmbeddingProvider, opts ...PipelineOption) (*Pipeline, error) {
	if embedder == nil {
		return nil, &niti.ErrConfig{Message: "embedding provider is required"}
	}
	p := &Pipeline{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		logger:    nopLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.batchSize <= 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("batch size must be positive, got %d", p.batchSize)}
	}
	return p, nil
}

// EmbedChunks returns one vector per chunk, row i belonging to chunk i.
// Sub-batch boundaries never reorder rows. Every returned vector is checked
// against the provider's declared dimension.
func (p *Pipeline) EmbedChunks(ctx context.Context, chunks []niti.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return p.EmbedTexts(ctx, texts)
}

// EmbedTexts embeds texts in input order.
func (p *Pipeline) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	dim := p.embedder.Dimensions()
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		got, err := p.embedder.Embed(ctx, batch)
		if err != nil {
			return nil, &niti.ErrAdapter{
				Adapter: "embedding",
				Message: fmt.Sprintf("batch [%d:%d]: %v", start, end, err),
			}
		}
		if len(got) != len(batch) {
			return nil, &niti.ErrConsistency{
				Message: fmt.Sprintf("embedding batch [%d:%d] returned %d vectors for %d texts", start, end, len(got), len(batch)),
			}
		}
		for _, v := range got {
			if len(v) != dim {
				return nil, &niti.ErrDimensionMismatch{Want: dim, Got: len(v)}
			}
		}
		vectors = append(vectors, got...)
		p.logger.Debug("embedded batch", "done", end, "total", len(texts))
	}
	return vectors, nil
}
