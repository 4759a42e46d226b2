package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// MarkdownExtractor extracts plain text from Markdown by walking goldmark's
// AST, dropping formatting while keeping the readable content in document
// order.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(content []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(content))

	var buf strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.CodeBlock:
			writeBlockLines(&buf, node, content)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			writeBlockLines(&buf, node, content)
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			buf.Write(node.URL(content))
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func writeBlockLines(buf *strings.Builder, n ast.Node, source []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
}
