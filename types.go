package niti

// --- Domain types ---

// Document is a cleaned, plain-UTF-8 text identified by its source filename.
// Documents are immutable once handed to the chunker.
type Document struct {
	SourceFile string `json:"source_file"`
	Text       string `json:"text"`
}

// Chunk is a contiguous token-bounded substring of a document's text.
// Index is the 0-based position within the owning document's chunk sequence.
type Chunk struct {
	SourceFile string `json:"source_file"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

// SourceMapEntry correlates one chunk to its row in the embedding matrix.
// EmbeddingIndex values form a dense, zero-based, strictly increasing
// sequence over (document order, chunk index); they are never reused or
// reordered after assignment. Field names are the on-disk wire format.
type SourceMapEntry struct {
	SourceFile     string `json:"source_file"`
	ChunkIndex     int    `json:"chunk_index"`
	EmbeddingIndex int    `json:"embedding_index"`
}

// ChunkMetadata is stored alongside a vector in the vector store and
// returned with every retrieval hit.
type ChunkMetadata struct {
	SourceFile string `json:"source_file"`
	ChunkIndex int    `json:"chunk_index"`
}

// RetrievalResult is one ranked hit from a vector-store query.
// Distance is the collection's configured metric; lower means more similar.
// RetrievalResult values are produced exclusively by VectorStore
// implementations.
type RetrievalResult struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float32       `json:"distance"`
}

// AssembledContext is the grounding text handed to the completion call:
// a token-budgeted prefix of ranked chunks joined by a fixed delimiter.
type AssembledContext struct {
	Text       string `json:"text"`
	ChunkCount int    `json:"chunk_count"`
	TokenCount int    `json:"token_count"`
}

// --- LLM protocol types ---

type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// --- ChatMessage constructors ---

func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: "user", Content: text}
}

func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: "system", Content: text}
}

func AssistantMessage(text string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: text}
}
