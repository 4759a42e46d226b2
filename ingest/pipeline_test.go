package ingest

import (
	"context"
	"errors"
	"testing"

	niti "github.com/farhanr/niti"
)

// fakeEmbedder returns deterministic vectors encoding the global call order,
// so tests can verify sub-batching never reorders rows. failAtBatch is
// 1-based; 0 disables failure.
type fakeEmbedder struct {
	dim         int
	failAtBatch int
	badCount    bool
	badDim      bool

	calls   int
	batches []int
	seen    int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, len(texts))
	if f.failAtBatch == f.calls {
		return nil, errors.New("embedding backend down")
	}
	n := len(texts)
	if f.badCount {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		dim := f.dim
		if f.badDim {
			dim++
		}
		v := make([]float32, dim)
		v[0] = float32(f.seen + i)
		out[i] = v
	}
	f.seen += len(texts)
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dim }
func (f *fakeEmbedder) Name() string    { return "fake" }

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "text"
	}
	return out
}

func TestEmbedTextsSubBatchesInOrder(t *testing.T) {
	embedder := &fakeEmbedder{dim: 3}
	p, err := NewPipeline(embedder, WithBatchSize(3))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	vectors, err := p.EmbedTexts(context.Background(), texts(7))
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	if len(vectors) != 7 {
		t.Fatalf("vectors = %d, want 7", len(vectors))
	}
	wantBatches := []int{3, 3, 1}
	if len(embedder.batches) != len(wantBatches) {
		t.Fatalf("batches = %v, want %v", embedder.batches, wantBatches)
	}
	for i, w := range wantBatches {
		if embedder.batches[i] != w {
			t.Errorf("batch %d size = %d, want %d", i, embedder.batches[i], w)
		}
	}
	// Row i carries its global position in v[0].
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("row %d out of order: marker = %v", i, v[0])
		}
	}
}

func TestEmbedTextsAllOrNothing(t *testing.T) {
	embedder := &fakeEmbedder{dim: 3, failAtBatch: 2}
	p, err := NewPipeline(embedder, WithBatchSize(2))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	vectors, err := p.EmbedTexts(context.Background(), texts(6))
	if vectors != nil {
		t.Errorf("vectors = %d rows, want nil on failure", len(vectors))
	}
	var adapterErr *niti.ErrAdapter
	if !errors.As(err, &adapterErr) {
		t.Fatalf("err = %v, want *ErrAdapter", err)
	}
}

func TestEmbedTextsRejectsCountMismatch(t *testing.T) {
	p, err := NewPipeline(&fakeEmbedder{dim: 3, badCount: true})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	_, err = p.EmbedTexts(context.Background(), texts(4))
	var consErr *niti.ErrConsistency
	if !errors.As(err, &consErr) {
		t.Fatalf("err = %v, want *ErrConsistency", err)
	}
}

func TestEmbedTextsRejectsDimensionMismatch(t *testing.T) {
	p, err := NewPipeline(&fakeEmbedder{dim: 3, badDim: true})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	_, err = p.EmbedTexts(context.Background(), texts(2))
	var dimErr *niti.ErrDimensionMismatch
	if !errors.As(err, &dimErr) {
		t.Fatalf("err = %v, want *ErrDimensionMismatch", err)
	}
	if dimErr.Want != 3 || dimErr.Got != 4 {
		t.Errorf("dims = %d/%d, want 3/4", dimErr.Want, dimErr.Got)
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	embedder := &fakeEmbedder{dim: 3}
	p, err := NewPipeline(embedder)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	vectors, err := p.EmbedTexts(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	if vectors != nil || embedder.calls != 0 {
		t.Errorf("vectors = %v, calls = %d; want no work", vectors, embedder.calls)
	}
}

func TestNewPipelineValidation(t *testing.T) {
	if _, err := NewPipeline(nil); err == nil {
		t.Error("nil embedder accepted")
	}
	if _, err := NewPipeline(&fakeEmbedder{dim: 3}, WithBatchSize(0)); err == nil {
		t.Error("zero batch size accepted")
	}
}
