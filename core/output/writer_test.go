package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/pagebrief/core"
)

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com", "example_com"},
		{"https://example.com/", "example_com"},
		{"https://example.com/docs/intro", "example_com_docs_intro"},
		{"https://news.example.com/2024/05/big-story.html", "news_example_com_2024_05_big_story_html"},
	}
	for _, tt := range tests {
		if got := FilenameFromURL(tt.in); got != tt.want {
			t.Errorf("FilenameFromURL(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestWriteReport(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, err := w.WriteReport("https://example.com/a", []byte("# brief"), ".md")
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if filepath.Base(p) != "example_com_a.md" {
		t.Errorf("unexpected report path %q", p)
	}
	data, err := os.ReadFile(p)
	if err != nil || string(data) != "# brief" {
		t.Errorf("unexpected report content %q (err %v)", data, err)
	}
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, err := w.WriteImage(4, core.ImageRecord{Source: "https://x.com/a.png", Caption: "A cat"}, []byte("png"), "image/png; charset=binary")
	if err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	if p != filepath.Join(dir, "images", "image_4.png") {
		t.Errorf("unexpected image path %q", p)
	}
	caption, err := os.ReadFile(filepath.Join(dir, "images", "image_4.txt"))
	if err != nil || string(caption) != "A cat\n" {
		t.Errorf("unexpected caption file %q (err %v)", caption, err)
	}

	p, err = w.WriteImage(5, core.ImageRecord{Source: "https://x.com/b.webp"}, []byte("webp"), "")
	if err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	if filepath.Ext(p) != ".webp" {
		t.Errorf("expected extension from URL, got %q", p)
	}
	if _, err := os.Stat(filepath.Join(dir, "images", "image_5.txt")); !os.IsNotExist(err) {
		t.Error("expected no caption file for empty caption")
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		src, contentType, want string
	}{
		{"https://x.com/a", "image/gif", ".gif"},
		{"https://x.com/a.jpeg", "application/octet-stream", ".jpeg"},
		{"https://x.com/a.php?id=1", "", ".jpg"},
	}
	for _, tt := range tests {
		if got := imageExtension(tt.src, tt.contentType); got != tt.want {
			t.Errorf("imageExtension(%q, %q): expected %q, got %q", tt.src, tt.contentType, tt.want, got)
		}
	}
}
