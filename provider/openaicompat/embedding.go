package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	niti "github.com/farhanr/niti"
)

// Embedding implements niti.EmbeddingProvider over the /embeddings
// endpoint. The vector dimension is declared at construction and every
// response is checked against it, since downstream storage fixes the
// collection dimension from this value.
type Embedding struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	settings
}

// NewEmbedding creates an embedding client. dimensions must match what the
// model actually emits (e.g. 1536 for text-embedding-3-small, 384 for
// all-MiniLM-L6-v2 behind a compatible server).
func NewEmbedding(apiKey, model, baseURL string, dimensions int, opts ...Option) (*Embedding, error) {
	if dimensions <= 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("embedding dimensions must be positive, got %d", dimensions)}
	}
	e := &Embedding{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		settings:   newSettings("openai"),
	}
	for _, opt := range opts {
		opt(&e.settings)
	}
	return e, nil
}

// Name returns the provider name.
func (e *Embedding) Name() string { return e.name }

// Dimensions returns the declared vector size.
func (e *Embedding) Dimensions() int { return e.dimensions }

// Embed returns one vector per input text, in input order. The API may
// return data out of order, so rows are placed by their index field.
func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := postJSON(ctx, &e.settings, e.apiKey, e.baseURL+"/embeddings", embeddingsBody{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpErr(resp)
	}

	var wire embeddingsWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &niti.ErrAdapter{Adapter: "embedding", Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(wire.Data) != len(texts) {
		return nil, &niti.ErrAdapter{
			Adapter: "embedding",
			Message: fmt.Sprintf("got %d embeddings for %d inputs", len(wire.Data), len(texts)),
		}
	}

	vectors := make([][]float32, len(texts))
	for _, d := range wire.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, &niti.ErrAdapter{Adapter: "embedding", Message: fmt.Sprintf("embedding index %d out of range", d.Index)}
		}
		if len(d.Embedding) != e.dimensions {
			return nil, &niti.ErrDimensionMismatch{Want: e.dimensions, Got: len(d.Embedding)}
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, &niti.ErrAdapter{Adapter: "embedding", Message: fmt.Sprintf("no embedding returned for input %d", i)}
		}
	}
	e.logger.Debug("embedded texts", "model", e.model, "count", len(texts))
	return vectors, nil
}

var _ niti.EmbeddingProvider = (*Embedding)(nil)
