// Package render — PDF renderer.
// Lays a Brief out as a styled PDF using gofpdf: metadata header, image
// list, summary and conversation. Markdown in the summary is rendered
// line by line (headings, paragraphs, code blocks, lists).
// Images are listed by caption and URL, not embedded.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer renders a Brief as a PDF document.
type PDFRenderer struct {
	// IncludeContent appends the page's main content.
	IncludeContent bool
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer(includeContent bool) *PDFRenderer {
	return &PDFRenderer{IncludeContent: includeContent}
}

// Render converts the Brief into PDF bytes.
func (r *PDFRenderer) Render(brief *core.Brief) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	cp := pdf.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string { return cp(stripSymbols(s)) }

	meta := brief.Metadata
	title := meta.Title
	if title == "" {
		title = meta.URL
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, tr("Source: "+meta.URL), "", "L", false)
	if meta.Byline != "" {
		pdf.MultiCell(0, 5, tr("By: "+meta.Byline), "", "L", false)
	}
	if meta.FetchedAt != "" {
		pdf.MultiCell(0, 5, tr("Fetched: "+meta.FetchedAt), "", "L", false)
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	if len(brief.Images) > 0 {
		renderHeading(pdf, "Images", 2)
		for i, img := range brief.Images {
			pdf.SetFont("Helvetica", "", 10)
			caption := strings.Join(strings.Fields(img.Caption), " ")
			if caption == "" {
				caption = "(no caption)"
			}
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, caption)), "", "L", false)
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetTextColor(60, 60, 160)
			pdf.MultiCell(0, 4, tr(img.Source), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(1)
		}
	}

	renderHeading(pdf, "Website Summary", 2)
	renderMarkdown(pdf, brief.Summary, tr)

	if len(brief.Transcript) > 0 {
		renderHeading(pdf, "Conversation", 2)
		renderMarkdown(pdf, Transcript(brief.Transcript), tr)
	}

	if r.IncludeContent && brief.Content != "" {
		renderHeading(pdf, "Page content", 2)
		renderMarkdown(pdf, brief.Content, tr)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

var numberedItemRegex = regexp.MustCompile(`^\d+\.\s`)

// renderMarkdown writes Markdown line by line. tr converts text to the
// font's code page.
func renderMarkdown(pdf *gofpdf.Fpdf, markdown string, tr func(string) string) {
	lines := strings.Split(markdown, "\n")
	inCodeBlock := false

	for _, line := range lines {
		// Toggle code block state.
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		if strings.TrimSpace(line) == "" {
			pdf.Ln(3)
			continue
		}

		if strings.HasPrefix(line, "#") {
			level := 0
			for _, ch := range line {
				if ch != '#' {
					break
				}
				level++
			}
			text := strings.TrimSpace(strings.TrimLeft(line, "# "))
			// Summary headings sit below the section heading.
			renderHeading(pdf, tr(text), level+1)
			continue
		}

		trimmed := strings.TrimSpace(line)
		pdf.SetFont("Helvetica", "", 10)
		switch {
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			text := "• " + cleanInlineMarkdown(trimmed[2:])
			pdf.MultiCell(0, 5, tr(text), "", "L", false)
		case numberedItemRegex.MatchString(trimmed):
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(trimmed)), "", "L", false)
		default:
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(line)), "", "L", false)
		}
	}
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, cleanInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

var italicRegex = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	// Italic markers, but not apostrophes inside words.
	text = italicRegex.ReplaceAllString(text, " $1 ")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")
	text = linkRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// stripSymbols drops pictographs the core fonts cannot draw.
func stripSymbols(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF && unicode.Is(unicode.So, r) {
			return -1
		}
		return r
	}, s)
}
