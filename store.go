package niti

import "context"

// Distance is the similarity metric of a vector-store collection.
// It is fixed when the collection is created and cannot change afterwards.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceL2     Distance = "l2"
)

// VectorStore is the gateway to an external vector database, scoped to a
// single named collection. Implementations are constructed explicitly and
// passed by reference; there is no process-wide shared instance.
//
// Writes happen only during ingestion, an administrative phase; query-time
// callers treat the store as read-only. Concurrent writers to the same
// collection must be serialized by the caller.
type VectorStore interface {
	// Upsert inserts or overwrites entries. All four slices must have equal
	// length, ids must be unique within the call, and every vector must match
	// the collection dimension. On any validation failure nothing is written.
	Upsert(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []ChunkMetadata) error

	// Query returns at most topK results ordered by ascending distance under
	// the collection's metric. An empty collection yields an empty result,
	// not an error.
	Query(ctx context.Context, vector []float32, topK int) ([]RetrievalResult, error)

	// Reset deletes and recreates the collection. Administrative operation;
	// result consistency of concurrent queries during a reset is undefined.
	Reset(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying connection.
	Close() error
}
