package niti

import "fmt"

// ErrConfig reports invalid parameters (non-positive max tokens, overlap not
// in [0, max), missing question). Raised before any I/O happens.
type ErrConfig struct {
	Message string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// ErrConsistency reports desynchronized ingestion artifacts: a source map
// whose length disagrees with the embedding matrix, or mismatched argument
// lengths on upsert. Fatal to the ingestion run; nothing is committed.
type ErrConsistency struct {
	Message string
}

func (e *ErrConsistency) Error() string {
	return fmt.Sprintf("consistency: %s", e.Message)
}

// ErrDimensionMismatch reports a vector whose dimension disagrees with the
// collection's fixed embedding dimension.
type ErrDimensionMismatch struct {
	Want int
	Got  int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: collection expects %d, got %d", e.Want, e.Got)
}

// ErrAdapter reports a tokenizer or embedding model failure for a given
// input. During ingestion this aborts the whole run; during context
// assembly it is tolerated per chunk.
type ErrAdapter struct {
	Adapter string // "tokenizer" or "embedding"
	Message string
}

func (e *ErrAdapter) Error() string {
	return fmt.Sprintf("%s: %s", e.Adapter, e.Message)
}

// ErrRetrieval reports a vector-store query failure (missing collection,
// connection failure). Propagated to the caller; never retried internally.
type ErrRetrieval struct {
	Message string
}

func (e *ErrRetrieval) Error() string {
	return fmt.Sprintf("retrieval: %s", e.Message)
}

// ErrCompletion reports a failure of the external completion endpoint,
// carrying as much upstream detail as available.
type ErrCompletion struct {
	Provider string
	Message  string
}

func (e *ErrCompletion) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrHTTP carries an upstream non-2xx response.
type ErrHTTP struct {
	Status int
	Body   string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}
