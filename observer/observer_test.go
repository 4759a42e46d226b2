package observer

import (
	"context"
	"errors"
	"testing"

	niti "github.com/farhanr/niti"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockProvider struct {
	name     string
	chatResp niti.ChatResponse
	chatErr  error
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) Chat(_ context.Context, _ niti.ChatRequest) (niti.ChatResponse, error) {
	return m.chatResp, m.chatErr
}

type mockEmbedding struct {
	name string
	dims int
	vecs [][]float32
	err  error
}

func (m *mockEmbedding) Name() string    { return m.name }
func (m *mockEmbedding) Dimensions() int { return m.dims }
func (m *mockEmbedding) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return m.vecs, m.err
}

type mockStore struct {
	results  []niti.RetrievalResult
	queryErr error
	upserts  int
	resets   int
}

func (m *mockStore) Upsert(context.Context, []string, [][]float32, []string, []niti.ChunkMetadata) error {
	m.upserts++
	return nil
}
func (m *mockStore) Query(context.Context, []float32, int) ([]niti.RetrievalResult, error) {
	return m.results, m.queryErr
}
func (m *mockStore) Reset(context.Context) error        { m.resets++; return nil }
func (m *mockStore) Count(context.Context) (int, error) { return len(m.results), nil }
func (m *mockStore) Close() error                       { return nil }

// testInstruments creates a no-op Instruments using the global OTEL
// providers (no-ops by default). Safe for testing delegation behavior
// without any real OTEL backend.
func testInstruments(t *testing.T) *Instruments {
	t.Helper()
	inst, err := newInstruments(nil)
	if err != nil {
		t.Fatalf("newInstruments: %v", err)
	}
	return inst
}

// ---------------------------------------------------------------------------
// ObservedProvider tests
// ---------------------------------------------------------------------------

func TestObservedProviderName(t *testing.T) {
	op := WrapProvider(&mockProvider{name: "test-provider"}, "test-model", testInstruments(t))
	if got := op.Name(); got != "test-provider" {
		t.Errorf("Name() = %q, want %q", got, "test-provider")
	}
}

func TestObservedProviderChat(t *testing.T) {
	want := niti.ChatResponse{
		Content: "hello from LLM",
		Usage:   niti.Usage{InputTokens: 10, OutputTokens: 5},
	}
	op := WrapProvider(&mockProvider{name: "p", chatResp: want}, "m", testInstruments(t))

	got, err := op.Chat(context.Background(), niti.ChatRequest{})
	if err != nil {
		t.Fatalf("Chat returned unexpected error: %v", err)
	}
	if got.Content != want.Content {
		t.Errorf("Content = %q, want %q", got.Content, want.Content)
	}
	if got.Usage != want.Usage {
		t.Errorf("Usage = %+v, want %+v", got.Usage, want.Usage)
	}
}

func TestObservedProviderChatError(t *testing.T) {
	wantErr := errors.New("provider unavailable")
	op := WrapProvider(&mockProvider{name: "p", chatErr: wantErr}, "m", testInstruments(t))

	_, err := op.Chat(context.Background(), niti.ChatRequest{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Chat error = %v, want %v", err, wantErr)
	}
}

// ---------------------------------------------------------------------------
// ObservedEmbedding tests
// ---------------------------------------------------------------------------

func TestObservedEmbeddingDelegates(t *testing.T) {
	want := [][]float32{{1, 0}, {0, 1}}
	oe := WrapEmbedding(&mockEmbedding{name: "e", dims: 2, vecs: want}, "m", testInstruments(t))

	if oe.Name() != "e" || oe.Dimensions() != 2 {
		t.Errorf("Name/Dimensions = %q/%d", oe.Name(), oe.Dimensions())
	}
	got, err := oe.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("vectors = %d, want 2", len(got))
	}
}

func TestObservedEmbeddingError(t *testing.T) {
	wantErr := errors.New("embedding offline")
	oe := WrapEmbedding(&mockEmbedding{name: "e", dims: 2, err: wantErr}, "m", testInstruments(t))

	_, err := oe.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Embed error = %v, want %v", err, wantErr)
	}
}

// ---------------------------------------------------------------------------
// ObservedStore tests
// ---------------------------------------------------------------------------

func TestObservedStoreQueryDelegates(t *testing.T) {
	inner := &mockStore{results: []niti.RetrievalResult{{Content: "chunk"}}}
	os := WrapStore(inner, testInstruments(t))

	results, err := os.Query(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].Content != "chunk" {
		t.Errorf("results = %+v", results)
	}
}

func TestObservedStoreQueryError(t *testing.T) {
	wantErr := errors.New("collection missing")
	os := WrapStore(&mockStore{queryErr: wantErr}, testInstruments(t))

	_, err := os.Query(context.Background(), []float32{1, 0}, 5)
	if !errors.Is(err, wantErr) {
		t.Errorf("Query error = %v, want %v", err, wantErr)
	}
}

func TestObservedStoreAdminOpsDelegate(t *testing.T) {
	inner := &mockStore{}
	os := WrapStore(inner, testInstruments(t))

	if err := os.Upsert(context.Background(), nil, nil, nil, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := os.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if inner.upserts != 1 || inner.resets != 1 {
		t.Errorf("delegation counts: upserts=%d resets=%d", inner.upserts, inner.resets)
	}
}
