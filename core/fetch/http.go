// Package fetch loads pages and downloads images.
// The browser loader renders the page in headless Chrome and scrolls it to
// trigger lazy-loaded content; the HTTP loader performs a plain GET with the
// same headers for pages that need no JavaScript.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagebrief/core"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// Referer returns "<scheme>://<host>/" for rawURL, or "" if it cannot be
// parsed.
func Referer(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)
}

// HTTPLoader loads pages via plain HTTP.
type HTTPLoader struct {
	client    *http.Client
	userAgent string
}

// NewHTTPLoader creates an HTTPLoader. Zero values fall back to defaults.
func NewHTTPLoader(timeout time.Duration, userAgent string) *HTTPLoader {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPLoader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Load retrieves the HTML content of the given URL.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) (*core.Page, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, core.ErrEmptyURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if ref := Referer(rawURL); ref != "" {
		req.Header.Set("Referer", ref)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.Page{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}
