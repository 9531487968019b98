package chunk

import (
	"testing"

	"github.com/gaurav-prasanna/pagebrief/core"
)

func TestContextText(t *testing.T) {
	if got := ContextText(nil); got != "" {
		t.Errorf("expected empty string for no chunks, got %q", got)
	}

	chunks := []core.TextChunk{
		{Label: core.LabelTitle, Text: "Hello"},
		{Label: core.LabelParagraph, Text: "World"},
	}
	want := "# Title\nHello\n# Paragraph\nWorld"
	if got := ContextText(chunks); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestContextImages(t *testing.T) {
	if got := ContextImages(nil); got != "" {
		t.Errorf("expected empty string for no images, got %q", got)
	}

	images := []core.ImageRecord{
		{Source: "https://x.com/a.jpg", Caption: "A cat"},
		{Source: "https://x.com/b.jpg"},
	}
	want := "A cat (https://x.com/a.jpg)\n (https://x.com/b.jpg)"
	if got := ContextImages(images); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFit(t *testing.T) {
	chunks := []core.TextChunk{
		{Label: core.LabelTitle, Text: "one two"},
		{Label: core.LabelParagraph, Text: "three four five"},
		{Label: core.LabelParagraph, Text: "six"},
	}

	tests := []struct {
		maxWords int
		want     int
	}{
		{0, 3},
		{-1, 3},
		{1, 0},
		{2, 1},
		{4, 1},
		{5, 2},
		{6, 3},
		{100, 3},
	}
	for _, tt := range tests {
		if got := Fit(chunks, tt.maxWords); len(got) != tt.want {
			t.Errorf("Fit(%d): expected %d chunks, got %d", tt.maxWords, tt.want, len(got))
		}
	}
}

func TestWords(t *testing.T) {
	if got := Words("  a b\n\tc  "); got != 3 {
		t.Errorf("expected 3 words, got %d", got)
	}
}
