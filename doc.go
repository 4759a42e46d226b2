// Package niti is a retrieval-augmented question-answering pipeline for
// document corpora. It chunks documents into token-bounded windows, embeds
// them, correlates chunks to embedding-matrix rows through a source map,
// and answers questions by assembling a token-budgeted context from vector
// search results before calling an LLM completion endpoint.
//
// The root package holds the contracts (Tokenizer, EmbeddingProvider,
// Provider, VectorStore) and the query path (context assembly, the
// Answerer orchestrator). Ingestion lives in the ingest subpackage;
// concrete adapters live under tokenizer/, provider/ and store/.
package niti
