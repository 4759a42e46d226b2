package niti

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// DefaultSystemPrompt instructs the model to stay inside the retrieved
	// context instead of answering from its own knowledge.
	DefaultSystemPrompt = "You are a helpful assistant. Answer the question using ONLY the information in the provided context. If the context does not contain the answer, say that you do not know."
)

// Answer is the result of one full question-answering pass.
type Answer struct {
	Text    string           `json:"text"`
	Context AssembledContext `json:"context"`
	Sources []ChunkMetadata  `json:"sources"`
	Usage   Usage            `json:"usage"`
}

// Answerer runs the query path: embed the question, retrieve nearest chunks,
// assemble a token-budgeted context, and call the completion provider.
// Each stage failure carries its own error type so callers can tell a
// retrieval outage from a completion outage. No stage is retried.
type Answerer struct {
	embedder  EmbeddingProvider
	store     VectorStore
	provider  Provider
	tokenizer Tokenizer

	topK          int
	contextBudget int
	systemPrompt  string
	language      string
	logger        *slog.Logger
}

// AnswererOption configures an Answerer.
type AnswererOption func(*Answerer)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) AnswererOption {
	return func(a *Answerer) { a.topK = k }
}

// WithContextBudget sets the assembled-context token budget.
func WithContextBudget(tokens int) AnswererOption {
	return func(a *Answerer) { a.contextBudget = tokens }
}

// WithSystemPrompt replaces the default grounding instruction.
func WithSystemPrompt(prompt string) AnswererOption {
	return func(a *Answerer) { a.systemPrompt = prompt }
}

// WithAnswerLanguage asks the model to answer in the given language.
func WithAnswerLanguage(lang string) AnswererOption {
	return func(a *Answerer) { a.language = lang }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) AnswererOption {
	return func(a *Answerer) { a.logger = l }
}

// NewAnswerer wires the four collaborators into a ready orchestrator.
func NewAnswerer(embedder EmbeddingProvider, store VectorStore, provider Provider, tokenizer Tokenizer, opts ...AnswererOption) (*Answerer, error) {
	if embedder == nil || store == nil || provider == nil || tokenizer == nil {
		return nil, &ErrConfig{Message: "embedder, store, provider and tokenizer are required"}
	}
	a := &Answerer{
		embedder:      embedder,
		store:         store,
		provider:      provider,
		tokenizer:     tokenizer,
		topK:          DefaultTopK,
		contextBudget: DefaultContextBudget,
		systemPrompt:  DefaultSystemPrompt,
		logger:        nopLogger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.topK <= 0 {
		return nil, &ErrConfig{Message: "top_k must be positive"}
	}
	if a.contextBudget <= 0 {
		return nil, &ErrConfig{Message: "context budget must be positive"}
	}
	return a, nil
}

// Ask answers one question against the ingested corpus.
func (a *Answerer) Ask(ctx context.Context, question string) (Answer, error) {
	return a.AskInLanguage(ctx, question, a.language)
}

// AskInLanguage answers one question with a per-call answer language,
// overriding the configured default. An empty language falls back to the
// configured one.
func (a *Answerer) AskInLanguage(ctx context.Context, question, language string) (Answer, error) {
	if language == "" {
		language = a.language
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, &ErrConfig{Message: "question must not be empty"}
	}

	vectors, err := a.embedder.Embed(ctx, []string{question})
	if err != nil {
		return Answer{}, fmt.Errorf("embed question: %w", &ErrAdapter{Adapter: "embedding", Message: err.Error()})
	}
	if len(vectors) != 1 {
		return Answer{}, &ErrAdapter{Adapter: "embedding", Message: fmt.Sprintf("expected 1 vector, got %d", len(vectors))}
	}

	results, err := a.store.Query(ctx, vectors[0], a.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("query store: %w", &ErrRetrieval{Message: err.Error()})
	}
	a.logger.Debug("retrieved chunks", "count", len(results), "top_k", a.topK)

	assembled, err := AssembleContext(a.tokenizer, results, a.contextBudget)
	if err != nil {
		return Answer{}, fmt.Errorf("assemble context: %w", err)
	}

	resp, err := a.provider.Chat(ctx, ChatRequest{Messages: a.buildMessages(question, language, assembled)})
	if err != nil {
		return Answer{}, fmt.Errorf("completion: %w", &ErrCompletion{Provider: a.provider.Name(), Message: err.Error()})
	}

	sources := make([]ChunkMetadata, 0, len(results))
	for _, r := range results {
		sources = append(sources, r.Metadata)
	}
	a.logger.Info("answered question",
		"chunks_used", assembled.ChunkCount,
		"context_tokens", assembled.TokenCount,
		"sources", len(sources),
	)
	return Answer{
		Text:    resp.Content,
		Context: assembled,
		Sources: sources,
		Usage:   resp.Usage,
	}, nil
}

// buildMessages lays out the prompt. Without usable context the question is
// sent bare so the model's refusal instruction still applies.
func (a *Answerer) buildMessages(question, language string, assembled AssembledContext) []ChatMessage {
	system := a.systemPrompt
	if language != "" {
		system += " Answer in " + language + "."
	}
	if assembled.Text == NoContextSentinel || assembled.ChunkCount == 0 {
		return []ChatMessage{SystemMessage(system), UserMessage(question)}
	}
	user := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", assembled.Text, question)
	return []ChatMessage{SystemMessage(system), UserMessage(user)}
}
