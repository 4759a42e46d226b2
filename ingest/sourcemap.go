package ingest

import (
	"fmt"

	niti "github.com/farhanr/niti"
)

// SourceMap correlates every chunk in the corpus to its row in the
// embedding matrix. Entries are ordered by embedding index, which runs
// densely from 0 over (document order, chunk index).
type SourceMap []niti.SourceMapEntry

// BuildSourceMap assigns embedding indexes across the chunk sets in order.
// The resulting map's length equals the total chunk count, which must equal
// the embedding matrix's row count.
func BuildSourceMap(chunkSets [][]niti.Chunk) SourceMap {
	var m SourceMap
	next := 0
	for _, set := range chunkSets {
		for _, chunk := range set {
			m = append(m, niti.SourceMapEntry{
				SourceFile:     chunk.SourceFile,
				ChunkIndex:     chunk.Index,
				EmbeddingIndex: next,
			})
			next++
		}
	}
	return m
}

// Validate checks the map against an embedding matrix with matrixRows rows.
// The map must be exactly as long as the matrix and its embedding indexes
// must run 0, 1, ..., matrixRows-1 in order. Any disagreement means the
// persisted artifacts drifted apart and the pair must not be loaded.
func (m SourceMap) Validate(matrixRows int) error {
	if len(m) != matrixRows {
		return &niti.ErrConsistency{
			Message: fmt.Sprintf("source map has %d entries, embedding matrix has %d rows", len(m), matrixRows),
		}
	}
	for i, entry := range m {
		if entry.EmbeddingIndex != i {
			return &niti.ErrConsistency{
				Message: fmt.Sprintf("source map entry %d has embedding index %d, want %d", i, entry.EmbeddingIndex, i),
			}
		}
		if entry.ChunkIndex < 0 {
			return &niti.ErrConsistency{
				Message: fmt.Sprintf("source map entry %d has negative chunk index %d", i, entry.ChunkIndex),
			}
		}
		if entry.SourceFile == "" {
			return &niti.ErrConsistency{
				Message: fmt.Sprintf("source map entry %d has empty source file", i),
			}
		}
	}
	return nil
}
