// Package output handles file naming and writing for pagebrief outputs.
// Reports are named after the page URL (e.g., example_com_news_story.md);
// downloaded images are numbered under an images/ subdirectory.
package output

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core"
)

// imageExtensions maps image content types to file extensions.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg", "image/png": ".png", "image/gif": ".gif",
	"image/webp": ".webp", "image/avif": ".avif", "image/bmp": ".bmp",
}

// Writer writes rendered output and downloaded images to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// WriteReport writes a rendered brief for rawURL.
// Filename: domain_path.ext (e.g., example_com.md).
func (w *Writer) WriteReport(rawURL string, data []byte, ext string) (string, error) {
	name := FilenameFromURL(rawURL)
	p := filepath.Join(w.OutputDir, name+ext)

	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", p, err)
	}
	return p, nil
}

// WriteImage stores a downloaded image as images/image_<index><ext>, with
// its caption in a .txt file of the same name when there is one.
func (w *Writer) WriteImage(index int, img core.ImageRecord, data []byte, contentType string) (string, error) {
	dir := filepath.Join(w.OutputDir, "images")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	base := filepath.Join(dir, fmt.Sprintf("image_%d", index))
	p := base + imageExtension(img.Source, contentType)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", p, err)
	}

	if img.Caption != "" {
		if err := os.WriteFile(base+".txt", []byte(img.Caption+"\n"), 0644); err != nil {
			return "", fmt.Errorf("writing caption for %s: %w", p, err)
		}
	}
	return p, nil
}

// imageExtension picks a file extension from the content type, then the
// URL path, defaulting to .jpg.
func imageExtension(src, contentType string) string {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if ext, ok := imageExtensions[strings.ToLower(mediaType)]; ok {
		return ext
	}
	if parsed, err := url.Parse(src); err == nil {
		ext := strings.ToLower(path.Ext(parsed.Path))
		if ext == ".jpeg" {
			return ext
		}
		for _, known := range imageExtensions {
			if ext == known {
				return ext
			}
		}
	}
	return ".jpg"
}

// FilenameFromURL converts a URL into a flat filename.
// Example: https://example.com/docs/intro → example_com_docs_intro
func FilenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		// Fallback: sanitize the raw string.
		return sanitize(rawURL)
	}

	parts := []string{sanitize(parsed.Host)}
	p := strings.Trim(parsed.Path, "/")
	if p != "" {
		for _, seg := range strings.Split(p, "/") {
			parts = append(parts, sanitize(seg))
		}
	}
	return strings.Join(parts, "_")
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
