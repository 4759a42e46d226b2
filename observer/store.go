package observer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	niti "github.com/farhanr/niti"
)

// ObservedStore wraps a niti.VectorStore with OTEL instrumentation.
// Queries get full span/metric treatment since they sit on the hot path;
// administrative operations get spans only.
type ObservedStore struct {
	inner niti.VectorStore
	inst  *Instruments
}

// WrapStore returns an instrumented vector store.
func WrapStore(inner niti.VectorStore, inst *Instruments) *ObservedStore {
	return &ObservedStore{inner: inner, inst: inst}
}

func (o *ObservedStore) Query(ctx context.Context, vector []float32, topK int) ([]niti.RetrievalResult, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "store.query", trace.WithAttributes(
		AttrStoreTopK.Int(topK),
	))
	defer span.End()
	start := time.Now()

	results, err := o.inner.Query(ctx, vector, topK)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(AttrStoreResults.Int(len(results)))

	o.inst.RetrievalRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
	o.inst.RetrievalDuration.Record(ctx, durationMs)
	o.inst.RetrievalResults.Record(ctx, int64(len(results)))

	return results, err
}

func (o *ObservedStore) Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []niti.ChunkMetadata) error {
	ctx, span := o.inst.Tracer.Start(ctx, "store.upsert", trace.WithAttributes(
		AttrStoreEntries.Int(len(ids)),
	))
	defer span.End()

	err := o.inner.Upsert(ctx, ids, vectors, documents, metadatas)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (o *ObservedStore) Reset(ctx context.Context) error {
	ctx, span := o.inst.Tracer.Start(ctx, "store.reset")
	defer span.End()

	err := o.inner.Reset(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (o *ObservedStore) Count(ctx context.Context) (int, error) {
	return o.inner.Count(ctx)
}

func (o *ObservedStore) Close() error {
	return o.inner.Close()
}

var _ niti.VectorStore = (*ObservedStore)(nil)
