// Package normalize implements the Normalizer interface.
// It converts the cleaned main-content HTML of a page into Markdown for
// the page-content section of a report.
package normalize

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct {
	domain string
}

// New creates a MarkdownNormalizer. Relative links are resolved against
// domain when it is set.
func New(domain string) *MarkdownNormalizer {
	return &MarkdownNormalizer{domain: domain}
}

// Normalize converts a cleaned HTML fragment into Markdown.
func (n *MarkdownNormalizer) Normalize(html string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if n.domain != "" {
		opts = append(opts, converter.WithDomain(n.domain))
	}
	markdown, err := htmltomarkdown.ConvertString(html, opts...)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
