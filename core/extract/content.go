// Package extract — main content export.
// The optional Markdown export covers the same content root the paragraph
// chunks come from, minus what the brief reports elsewhere: images,
// galleries, bylines and footnote markers.
package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// exportDropped is removed from the content root before export.
const exportDropped = "script, style, noscript, template, sup, " +
	"img, picture, figure, video, audio, iframe, svg, canvas, form, button"

// Content returns the HTML of the page's content root, cleaned for the
// Markdown export. The document is not modified.
func (e *TextExtractor) Content(doc *goquery.Document) (string, error) {
	root := e.contentRoot(doc)
	if root == nil {
		return "", fmt.Errorf("no content root matched")
	}

	clean := root.Clone()
	clean.Find(exportDropped).Remove()
	if e.rules.gallery != nil {
		clean.FindMatcher(e.rules.gallery).Remove()
	}
	if e.rules.author != "" {
		clean.Find(fmt.Sprintf("[class*=%q]", e.rules.author)).Remove()
	}

	out, err := goquery.OuterHtml(clean)
	if err != nil {
		return "", fmt.Errorf("serializing content root: %w", err)
	}
	return out, nil
}
