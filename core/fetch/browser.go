// Package fetch — headless browser loader.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/gaurav-prasanna/pagebrief/core"
)

// BrowserOptions configures the headless browser loader.
type BrowserOptions struct {
	Timeout        time.Duration // upper bound for the whole load
	UserAgent      string
	ChromePath     string // empty = auto-detect
	Headless       bool
	ScrollStep     int           // pixels per synthetic scroll
	ScrollInterval time.Duration // pause between scrolls
	MaxScrolls     int           // hard cap on scroll steps
}

// DefaultBrowserOptions returns sensible defaults.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Timeout:        defaultTimeout,
		UserAgent:      defaultUserAgent,
		Headless:       true,
		ScrollStep:     500,
		ScrollInterval: 200 * time.Millisecond,
		MaxScrolls:     100,
	}
}

// BrowserLoader renders pages in headless Chrome.
type BrowserLoader struct {
	opts   BrowserOptions
	logger *slog.Logger
}

// NewBrowserLoader creates a BrowserLoader. Zero-valued options fall back
// to the defaults.
func NewBrowserLoader(opts BrowserOptions, logger *slog.Logger) *BrowserLoader {
	def := DefaultBrowserOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.ScrollStep <= 0 {
		opts.ScrollStep = def.ScrollStep
	}
	if opts.ScrollInterval <= 0 {
		opts.ScrollInterval = def.ScrollInterval
	}
	if opts.MaxScrolls <= 0 {
		opts.MaxScrolls = def.MaxScrolls
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserLoader{opts: opts, logger: logger}
}

// Load navigates to rawURL, waits for the DOM, scrolls through the page to
// trigger lazy loading and returns the rendered HTML. The browser is shut
// down before Load returns, whatever the outcome.
func (l *BrowserLoader) Load(ctx context.Context, rawURL string) (*core.Page, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, core.ErrEmptyURL
	}
	start := time.Now()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(l.opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if l.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ChromePath))
	}

	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	// chromedp logs unknown CDP events at error level; keep them at debug.
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		l.logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer browserCancel()

	headers := network.Headers{}
	if ref := Referer(rawURL); ref != "" {
		headers["Referer"] = ref
	}

	var html, finalURL string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(l.scroll),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch %s: %w", rawURL, err)
	}

	l.logger.Info("page loaded",
		"url", rawURL,
		"final_url", finalURL,
		"bytes", len(html),
		"duration", time.Since(start),
	)
	return &core.Page{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: 200,
		HTML:       html,
	}, nil
}

// scrollScript scrolls one step and reports whether the scrolled distance
// has reached the page height.
const scrollScript = `(() => {
	window.scrollBy(0, %d);
	window.__pagebriefScrolled = (window.__pagebriefScrolled || 0) + %d;
	return window.__pagebriefScrolled >= document.body.scrollHeight;
})()`

// scroll drives the page down at a fixed cadence until the bottom is
// reached or MaxScrolls steps have run.
func (l *BrowserLoader) scroll(ctx context.Context) error {
	script := fmt.Sprintf(scrollScript, l.opts.ScrollStep, l.opts.ScrollStep)
	for i := 0; i < l.opts.MaxScrolls; i++ {
		var done bool
		if err := chromedp.Evaluate(script, &done).Do(ctx); err != nil {
			return fmt.Errorf("scrolling: %w", err)
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.ScrollInterval):
		}
	}
	l.logger.Debug("scroll limit reached", "steps", l.opts.MaxScrolls)
	return nil
}
