// Package fetch — image downloads.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gaurav-prasanna/pagebrief/core"
)

const (
	imageTimeout  = 30 * time.Second
	maxImageBytes = 20 << 20
)

// ImageStore persists downloaded image bytes.
type ImageStore interface {
	WriteImage(index int, img core.ImageRecord, data []byte, contentType string) (string, error)
}

// ImageDownloader implements core.ImageSink by fetching each image and
// handing the bytes to an ImageStore.
type ImageDownloader struct {
	client    *http.Client
	store     ImageStore
	userAgent string
	referer   string
}

// NewImageDownloader creates an ImageDownloader. pageURL supplies the
// Referer sent with every image request.
func NewImageDownloader(store ImageStore, pageURL, userAgent string) *ImageDownloader {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &ImageDownloader{
		client:    &http.Client{Timeout: imageTimeout},
		store:     store,
		userAgent: userAgent,
		referer:   Referer(pageURL),
	}
}

// Save downloads img and stores it under index.
func (d *ImageDownloader) Save(ctx context.Context, index int, img core.ImageRecord) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.Source, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	if d.referer != "" {
		req.Header.Set("Referer", d.referer)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", img.Source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, img.Source)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return fmt.Errorf("reading image body: %w", err)
	}

	if _, err := d.store.WriteImage(index, img, data, resp.Header.Get("Content-Type")); err != nil {
		return fmt.Errorf("storing image %d: %w", index, err)
	}
	return nil
}
