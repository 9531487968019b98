// Package extract — text extraction.
// Turns serialized HTML into labeled chunks: the page title, h1 headers,
// time annotations and paragraphs of the main content root.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/pagebrief/core"
	"golang.org/x/net/html"
)

// TextExtractor produces the ordered TextChunk sequence for a page.
type TextExtractor struct {
	rules *compiledRules
}

// NewTextExtractor creates a TextExtractor using the given rules.
func NewTextExtractor(rules Rules) (*TextExtractor, error) {
	compiled, err := rules.compile()
	if err != nil {
		return nil, err
	}
	return &TextExtractor{rules: compiled}, nil
}

// Extract parses html and returns its chunks.
func (e *TextExtractor) Extract(rawHTML string) ([]core.TextChunk, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return e.ExtractDocument(doc), nil
}

// ExtractDocument returns the chunks of an already parsed document in the
// order Title, headers, times, paragraphs. The title chunk is always
// present, even when the page has no title. The document is not modified.
func (e *TextExtractor) ExtractDocument(doc *goquery.Document) []core.TextChunk {
	chunks := []core.TextChunk{{Label: core.LabelTitle, Text: Title(doc)}}
	chunks = append(chunks, collect(doc.Find("div h1"), core.LabelHeader)...)
	chunks = append(chunks, collect(doc.Find("div time"), core.LabelTime)...)
	chunks = append(chunks, e.paragraphs(doc)...)
	return chunks
}

// Title returns the visible text of the document's title element.
func Title(doc *goquery.Document) string {
	return visibleText(doc.Find("title").First())
}

// paragraphs emits one chunk per non-empty paragraph of the content root,
// with footnote markers stripped.
func (e *TextExtractor) paragraphs(doc *goquery.Document) []core.TextChunk {
	root := e.contentRoot(doc)
	if root == nil {
		return nil
	}

	var chunks []core.TextChunk
	root.Find("p").Each(func(_ int, p *goquery.Selection) {
		clean := p.Clone()
		clean.Find("sup").Remove()
		if text := visibleText(clean); text != "" {
			chunks = append(chunks, core.TextChunk{Label: core.LabelParagraph, Text: text})
		}
	})
	return chunks
}

// contentRoot returns the first element matched by the content-root
// selectors, tried in priority order.
func (e *TextExtractor) contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, m := range e.rules.roots {
		if sel := doc.FindMatcher(m); sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

// collect turns each selected element with visible text into one chunk.
// The selection holds every element once, in document order.
func collect(sel *goquery.Selection, label core.Label) []core.TextChunk {
	var chunks []core.TextChunk
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := visibleText(s); text != "" {
			chunks = append(chunks, core.TextChunk{Label: label, Text: text})
		}
	})
	return chunks
}

// skipText are elements whose text is never rendered.
var skipText = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// visibleText joins the trimmed text nodes under the selection with single
// spaces, skipping empty nodes and non-rendered elements.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if skipText[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
