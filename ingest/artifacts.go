package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	niti "github.com/farhanr/niti"
)

// Artifact filenames inside an ingestion output directory. The source map
// and embedding matrix form a pair: neither is meaningful without the other,
// and LoadArtifacts refuses to return a desynchronized pair.
const (
	SourceMapFile = "source_map.json"
	MatrixFile    = "embeddings.json"

	chunkFileSuffix = "_chunks.json"
)

// EmbeddingMatrix is the persisted form of all chunk vectors. Row i is the
// vector for embedding index i.
type EmbeddingMatrix struct {
	Dimension int         `json:"dimension"`
	Vectors   [][]float32 `json:"vectors"`
}

// Rows returns the number of vectors.
func (m EmbeddingMatrix) Rows() int { return len(m.Vectors) }

// Validate checks that every row matches the declared dimension.
func (m EmbeddingMatrix) Validate() error {
	if m.Dimension <= 0 {
		return &niti.ErrConsistency{Message: fmt.Sprintf("matrix dimension must be positive, got %d", m.Dimension)}
	}
	for _, v := range m.Vectors {
		if len(v) != m.Dimension {
			return &niti.ErrDimensionMismatch{Want: m.Dimension, Got: len(v)}
		}
	}
	return nil
}

// ChunkFileName returns the chunk-set filename for a source file:
// the stem plus "_chunks.json".
func ChunkFileName(sourceFile string) string {
	stem := strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))
	return stem + chunkFileSuffix
}

// SaveArtifacts persists the full ingestion output to dir: one chunk file
// per document, the source map, and the embedding matrix. The pair is
// validated before anything is written, so an inconsistent run leaves the
// directory untouched.
func SaveArtifacts(dir string, chunkSets [][]niti.Chunk, m SourceMap, matrix EmbeddingMatrix) error {
	if err := matrix.Validate(); err != nil {
		return err
	}
	if err := m.Validate(matrix.Rows()); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	for _, set := range chunkSets {
		if len(set) == 0 {
			continue
		}
		texts := make([]string, len(set))
		for i, c := range set {
			texts[i] = c.Text
		}
		path := filepath.Join(dir, ChunkFileName(set[0].SourceFile))
		if err := writeJSON(path, texts); err != nil {
			return err
		}
	}
	if err := writeJSON(filepath.Join(dir, SourceMapFile), m); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, MatrixFile), matrix)
}

// LoadArtifacts reads back the source map and embedding matrix from dir and
// validates them as a pair. A truncated matrix or reordered map fails here
// rather than corrupting the store.
func LoadArtifacts(dir string) (SourceMap, EmbeddingMatrix, error) {
	var m SourceMap
	if err := readJSON(filepath.Join(dir, SourceMapFile), &m); err != nil {
		return nil, EmbeddingMatrix{}, err
	}
	var matrix EmbeddingMatrix
	if err := readJSON(filepath.Join(dir, MatrixFile), &matrix); err != nil {
		return nil, EmbeddingMatrix{}, err
	}
	if err := matrix.Validate(); err != nil {
		return nil, EmbeddingMatrix{}, err
	}
	if err := m.Validate(matrix.Rows()); err != nil {
		return nil, EmbeddingMatrix{}, err
	}
	return m, matrix, nil
}

// LoadChunkSet reads one document's chunk file and rebuilds its chunks.
// Chunk indexes are the positions within the persisted array.
func LoadChunkSet(dir, sourceFile string) ([]niti.Chunk, error) {
	var texts []string
	if err := readJSON(filepath.Join(dir, ChunkFileName(sourceFile)), &texts); err != nil {
		return nil, err
	}
	chunks := make([]niti.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = niti.Chunk{SourceFile: sourceFile, Index: i, Text: t}
	}
	return chunks, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
