package ingest

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// HTMLExtractor extracts the readable article text from an HTML page.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(content []byte) (string, error) {
	// Local files have no origin; readability only uses the URL to resolve
	// relative links, which we discard anyway.
	base, _ := url.Parse("http://localhost/")
	article, err := readability.FromReader(bytes.NewReader(content), base)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return article.TextContent, nil
}
