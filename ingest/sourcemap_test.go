package ingest

import (
	"errors"
	"testing"

	niti "github.com/farhanr/niti"
)

func chunkSet(file string, n int) []niti.Chunk {
	set := make([]niti.Chunk, n)
	for i := range set {
		set[i] = niti.Chunk{SourceFile: file, Index: i, Text: file}
	}
	return set
}

func TestBuildSourceMapDenseAcrossDocuments(t *testing.T) {
	m := BuildSourceMap([][]niti.Chunk{chunkSet("first.txt", 3), chunkSet("second.txt", 2)})
	if len(m) != 5 {
		t.Fatalf("entries = %d, want 5", len(m))
	}
	want := []niti.SourceMapEntry{
		{SourceFile: "first.txt", ChunkIndex: 0, EmbeddingIndex: 0},
		{SourceFile: "first.txt", ChunkIndex: 1, EmbeddingIndex: 1},
		{SourceFile: "first.txt", ChunkIndex: 2, EmbeddingIndex: 2},
		{SourceFile: "second.txt", ChunkIndex: 0, EmbeddingIndex: 3},
		{SourceFile: "second.txt", ChunkIndex: 1, EmbeddingIndex: 4},
	}
	for i, w := range want {
		if m[i] != w {
			t.Errorf("entry %d = %+v, want %+v", i, m[i], w)
		}
	}
}

func TestSourceMapValidate(t *testing.T) {
	m := BuildSourceMap([][]niti.Chunk{chunkSet("a.txt", 4)})

	if err := m.Validate(4); err != nil {
		t.Errorf("Validate(4) = %v, want nil", err)
	}

	// Truncated matrix.
	if err := m.Validate(3); err == nil {
		t.Error("Validate(3) accepted a truncated matrix")
	} else {
		var consErr *niti.ErrConsistency
		if !errors.As(err, &consErr) {
			t.Errorf("err = %v, want *ErrConsistency", err)
		}
	}

	// Oversized matrix.
	if err := m.Validate(5); err == nil {
		t.Error("Validate(5) accepted an oversized matrix")
	}

	// Reordered entries.
	swapped := make(SourceMap, len(m))
	copy(swapped, m)
	swapped[1], swapped[2] = swapped[2], swapped[1]
	if err := swapped.Validate(4); err == nil {
		t.Error("reordered map accepted")
	}
}
