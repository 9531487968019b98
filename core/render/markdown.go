// Package render provides output renderers for a Brief.
// This file implements the Markdown renderer, which is also what the
// terminal shows: the image grid, the summary and the conversation.
package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core"
)

// ImagesPerRow is the width of the image grid.
const ImagesPerRow = 3

// MarkdownRenderer renders a Brief as a Markdown document.
type MarkdownRenderer struct {
	// IncludeContent appends the page's main content as Markdown.
	IncludeContent bool
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(includeContent bool) *MarkdownRenderer {
	return &MarkdownRenderer{IncludeContent: includeContent}
}

// Render returns the Brief as Markdown.
func (r *MarkdownRenderer) Render(brief *core.Brief) ([]byte, error) {
	var b strings.Builder

	title := brief.Metadata.Title
	if title == "" {
		title = brief.Metadata.URL
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Source: %s\n", brief.Metadata.URL)
	if brief.Metadata.Byline != "" {
		fmt.Fprintf(&b, "By: %s\n", brief.Metadata.Byline)
	}
	if brief.Metadata.FetchedAt != "" {
		fmt.Fprintf(&b, "Fetched: %s\n", brief.Metadata.FetchedAt)
	}
	b.WriteString("\n")

	if len(brief.Images) > 0 {
		b.WriteString("## 📷 Images\n\n")
		b.WriteString(ImageGrid(brief.Images, ImagesPerRow))
		b.WriteString("\n")
	}

	b.WriteString("## 📝 Website Summary\n\n")
	b.WriteString(strings.TrimSpace(brief.Summary))
	b.WriteString("\n")

	if len(brief.Transcript) > 0 {
		b.WriteString("\n## 💬 Conversation\n\n")
		b.WriteString(Transcript(brief.Transcript))
	}

	if r.IncludeContent && brief.Content != "" {
		b.WriteString("\n## Page content\n\n")
		b.WriteString(brief.Content)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// ImageGrid lays images out in a Markdown table, perRow images per row,
// each cell holding the image and its caption.
func ImageGrid(images []core.ImageRecord, perRow int) string {
	if len(images) == 0 {
		return ""
	}
	if perRow <= 0 {
		perRow = ImagesPerRow
	}
	cols := perRow
	if len(images) < cols {
		cols = len(images)
	}

	var b strings.Builder
	b.WriteString("|" + strings.Repeat("   |", cols) + "\n")
	b.WriteString("|" + strings.Repeat("---|", cols) + "\n")
	for start := 0; start < len(images); start += cols {
		b.WriteString("|")
		for i := start; i < start+cols; i++ {
			if i < len(images) {
				b.WriteString(" " + imageCell(images[i]) + " ")
			}
			b.WriteString("|")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// imageCell renders one grid cell; table cells cannot hold newlines or
// unescaped pipes. The destination is wrapped in <> so sources with
// spaces or parentheses stay one link.
func imageCell(img core.ImageRecord) string {
	caption := strings.Join(strings.Fields(img.Caption), " ")
	caption = strings.ReplaceAll(caption, "|", `\|`)
	cell := fmt.Sprintf("![%s](<%s>)", altEscaper.Replace(caption), destEscaper.Replace(img.Source))
	if caption != "" {
		cell += "<br>" + caption
	}
	return cell
}

var (
	altEscaper  = strings.NewReplacer("[", `\[`, "]", `\]`)
	destEscaper = strings.NewReplacer("<", "%3C", ">", "%3E", "|", "%7C", " ", "%20")
)

// Transcript renders a conversation as alternating labeled paragraphs.
func Transcript(messages []core.Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case core.RoleUser:
			fmt.Fprintf(&b, "**You:** %s\n\n", strings.TrimSpace(m.Content))
		case core.RoleAssistant:
			fmt.Fprintf(&b, "**Assistant:**\n\n%s\n\n", strings.TrimSpace(m.Content))
		}
	}
	return b.String()
}
