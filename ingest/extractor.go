// Package ingest turns document files into embedded, store-ready chunk sets.
//
// The flow is extract -> clean -> chunk -> embed -> persist artifacts ->
// load into the vector store. Every step is deterministic for a given
// input, so re-running ingestion over the same corpus reproduces the same
// chunk sets, source map and embedding matrix row order.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	niti "github.com/farhanr/niti"
)

// Extractor converts one file format's raw bytes into plain text.
type Extractor interface {
	Extract(content []byte) (string, error)
}

// extractors maps a lowercase file extension to its extractor.
var extractors = map[string]Extractor{
	".txt":  plainExtractor{},
	".text": plainExtractor{},
	".pdf":  &PDFExtractor{},
	".md":   &MarkdownExtractor{},
	".html": &HTMLExtractor{},
	".htm":  &HTMLExtractor{},
}

type plainExtractor struct{}

func (plainExtractor) Extract(content []byte) (string, error) {
	return string(content), nil
}

// SupportedExtension reports whether files with the given extension can be
// ingested.
func SupportedExtension(ext string) bool {
	_, ok := extractors[strings.ToLower(ext)]
	return ok
}

// CleanText normalizes extracted text for chunking: Unicode NFC, digit-only
// lines dropped, control characters and newlines replaced by spaces,
// whitespace runs collapsed. The line filter runs before newlines collapse;
// PDF extraction leaves page numbers on lines of their own.
func CleanText(text string) string {
	text = norm.NFC.String(text)
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if digitOnlyLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, strings.Join(kept, " "))
	return strings.Join(strings.Fields(text), " ")
}

func digitOnlyLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, r := range line {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ExtractFile reads one file and returns it as a cleaned document. The
// document's SourceFile is the base filename, matching what the source map
// and retrieval metadata carry.
func ExtractFile(path string) (niti.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := extractors[ext]
	if !ok {
		return niti.Document{}, &niti.ErrConfig{Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return niti.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := extractor.Extract(content)
	if err != nil {
		return niti.Document{}, fmt.Errorf("extract %s: %w", path, err)
	}
	return niti.Document{
		SourceFile: filepath.Base(path),
		Text:       CleanText(text),
	}, nil
}

// LoadDirectory extracts every supported file directly under dir, in
// lexicographic filename order so embedding indexes are stable across runs.
// Unsupported files are skipped, not failed.
func LoadDirectory(dir string) ([]niti.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !SupportedExtension(filepath.Ext(e.Name())) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]niti.Document, 0, len(names))
	for _, name := range names {
		doc, err := ExtractFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
