package ingest

import (
	"fmt"
	"strings"

	niti "github.com/farhanr/niti"
)

const (
	// DefaultMaxTokens is the chunk window size.
	DefaultMaxTokens = 512
	// DefaultOverlapTokens is the number of tokens shared between adjacent
	// chunks.
	DefaultOverlapTokens = 50
)

// Chunker splits documents into fixed-size token windows with overlap.
// Consecutive windows start max-overlap tokens apart, so every token of the
// document lands in at least one chunk and chunking the same text with the
// same parameters always yields the same chunks.
type Chunker struct {
	tok           niti.Tokenizer
	maxTokens     int
	overlapTokens int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithMaxTokens sets the maximum tokens per chunk.
func WithMaxTokens(n int) ChunkerOption {
	return func(c *Chunker) { c.maxTokens = n }
}

// WithOverlapTokens sets the token overlap between adjacent chunks.
// Must be non-negative and strictly less than the max tokens.
func WithOverlapTokens(n int) ChunkerOption {
	return func(c *Chunker) { c.overlapTokens = n }
}

// NewChunker validates parameters up front so a misconfigured chunker never
// reaches the corpus.
func NewChunker(tok niti.Tokenizer, opts ...ChunkerOption) (*Chunker, error) {
	if tok == nil {
		return nil, &niti.ErrConfig{Message: "tokenizer is required"}
	}
	c := &Chunker{
		tok:           tok,
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxTokens <= 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("max tokens must be positive, got %d", c.maxTokens)}
	}
	if c.overlapTokens < 0 {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("overlap tokens must be non-negative, got %d", c.overlapTokens)}
	}
	if c.overlapTokens >= c.maxTokens {
		return nil, &niti.ErrConfig{Message: fmt.Sprintf("overlap tokens (%d) must be less than max tokens (%d)", c.overlapTokens, c.maxTokens)}
	}
	return c, nil
}

// ChunkDocument splits one document into its chunk sequence. Chunk indexes
// are 0-based positions within the kept sequence. Windows that decode to
// whitespace-only text are discarded, never stored or embedded. An empty
// document yields no chunks; a document at or under the window size yields
// exactly one.
func (c *Chunker) ChunkDocument(doc niti.Document) ([]niti.Chunk, error) {
	ids, err := c.tok.Encode(doc.Text)
	if err != nil {
		return nil, &niti.ErrAdapter{Adapter: "tokenizer", Message: fmt.Sprintf("encode %s: %v", doc.SourceFile, err)}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	step := c.maxTokens - c.overlapTokens
	var chunks []niti.Chunk
	for start := 0; start < len(ids); start += step {
		end := start + c.maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		text, err := c.tok.Decode(ids[start:end])
		if err != nil {
			return nil, &niti.ErrAdapter{Adapter: "tokenizer", Message: fmt.Sprintf("decode %s window [%d:%d]: %v", doc.SourceFile, start, end, err)}
		}
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, niti.Chunk{
				SourceFile: doc.SourceFile,
				Index:      len(chunks),
				Text:       text,
			})
		}
		if end == len(ids) {
			break
		}
	}
	return chunks, nil
}

// ChunkAll chunks documents in the given order and returns one chunk set
// per document, aligned by index. Document order determines embedding-index
// assignment downstream, so callers must pass a stable order.
func (c *Chunker) ChunkAll(docs []niti.Document) ([][]niti.Chunk, error) {
	sets := make([][]niti.Chunk, len(docs))
	for i, doc := range docs {
		chunks, err := c.ChunkDocument(doc)
		if err != nil {
			return nil, err
		}
		sets[i] = chunks
	}
	return sets, nil
}
