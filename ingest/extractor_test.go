package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"collapses whitespace", "a  b\tc", "a b c"},
		{"newlines become spaces", "line one\nline two\r\nline three", "line one line two line three"},
		{"trims", "  padded  ", "padded"},
		{"drops control chars", "a\x00b\x1fc", "a b c"},
		{"empty", "", ""},
		// Page numbers sit on lines of their own after PDF extraction.
		{"drops digit-only lines", "Heading\n12\nBody text", "Heading Body text"},
		{"drops padded digit-only lines", "Heading\n  347 \r\nBody", "Heading Body"},
		{"keeps digits inside lines", "Employees get\n20 vacation days.", "Employees get 20 vacation days."},
		{"digit-only input", "42", ""},
		// Decomposed e + combining acute composes to a single rune.
		{"nfc normalization", "café", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSupportedExtension(t *testing.T) {
	for _, ext := range []string{".txt", ".pdf", ".md", ".html", ".PDF"} {
		if !SupportedExtension(ext) {
			t.Errorf("SupportedExtension(%q) = false", ext)
		}
	}
	for _, ext := range []string{".docx", ".exe", ""} {
		if SupportedExtension(ext) {
			t.Errorf("SupportedExtension(%q) = true", ext)
		}
	}
}

func TestExtractFilePlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	if err := os.WriteFile(path, []byte("Employees get\n20 vacation days.\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	doc, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if doc.SourceFile != "policy.txt" {
		t.Errorf("SourceFile = %q", doc.SourceFile)
	}
	if doc.Text != "Employees get 20 vacation days." {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestExtractFileUnsupportedType(t *testing.T) {
	_, err := ExtractFile("report.docx")
	if err == nil {
		t.Fatal("unsupported extension accepted")
	}
}

func TestMarkdownExtractor(t *testing.T) {
	src := []byte("# Leave Policy\n\nEmployees get **20** days.\n\n- sick leave\n- parental leave\n\n```\ncode sample\n```\n")
	text, err := (&MarkdownExtractor{}).Extract(src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{"Leave Policy", "Employees get", "20", "sick leave", "code sample"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q: %q", want, text)
		}
	}
	for _, forbidden := range []string{"#", "**", "```"} {
		if strings.Contains(text, forbidden) {
			t.Errorf("markup %q leaked into text: %q", forbidden, text)
		}
	}
}

func TestLoadDirectorySortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.txt":    "second doc",
		"a.txt":    "first doc",
		"skip.bin": "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	docs, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if docs[0].SourceFile != "a.txt" || docs[1].SourceFile != "b.txt" {
		t.Errorf("order = %q, %q", docs[0].SourceFile, docs[1].SourceFile)
	}
}
