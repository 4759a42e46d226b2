package niti

import "context"

// Provider abstracts the LLM completion backend.
type Provider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// Name returns the provider name (e.g. "openrouter").
	Name() string
}

// EmbeddingProvider abstracts text embedding.
type EmbeddingProvider interface {
	// Embed returns one embedding vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the fixed embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}
