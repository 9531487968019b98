// Package chunk flattens extracted chunks and image records into the two
// context blocks that are injected into generation prompts.
package chunk

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core"
)

// ContextText joins the rendered chunks with newlines.
func ContextText(chunks []core.TextChunk) string {
	lines := make([]string, len(chunks))
	for i, c := range chunks {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// ContextImages renders one "caption (source)" line per image.
func ContextImages(images []core.ImageRecord) string {
	lines := make([]string, len(images))
	for i, img := range images {
		lines[i] = fmt.Sprintf("%s (%s)", img.Caption, img.Source)
	}
	return strings.Join(lines, "\n")
}
