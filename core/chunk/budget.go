// Package chunk — word budget.
// Uses a simple whitespace tokenizer (words ≈ tokens) to keep prompts
// within a model's context window.
package chunk

import (
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core"
)

// Fit returns the leading chunks whose combined word count stays within
// maxWords. Chunks are never split. maxWords <= 0 means no limit.
func Fit(chunks []core.TextChunk, maxWords int) []core.TextChunk {
	if maxWords <= 0 {
		return chunks
	}

	used := 0
	for i, c := range chunks {
		words := len(strings.Fields(c.Text))
		if used+words > maxWords {
			return chunks[:i]
		}
		used += words
	}
	return chunks
}

// Words counts whitespace-separated words in text.
func Words(text string) int {
	return len(strings.Fields(text))
}
