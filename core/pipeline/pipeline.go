// Package pipeline wires the stages of a pagebrief run together:
// load → parse → images → text → metadata → assemble → summarize.
// It owns no state between runs; every input is passed explicitly.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/gaurav-prasanna/pagebrief/core/chunk"
	"github.com/gaurav-prasanna/pagebrief/core/extract"
	"github.com/gaurav-prasanna/pagebrief/core/normalize"
	"github.com/gaurav-prasanna/pagebrief/core/prompt"
)

// SinkFactory returns the image sink for one run. pageURL is the page the
// images were found on. A nil factory, or a nil sink, disables downloads.
type SinkFactory func(pageURL string) core.ImageSink

// Options tunes a Pipeline.
type Options struct {
	Rules           extract.Rules
	MaxContextWords int  // 0 = no limit
	IncludeContent  bool // convert the main content to Markdown
}

// Pipeline runs summarization for single URLs.
type Pipeline struct {
	loader    core.Loader
	generator core.Generator
	sinks     SinkFactory
	text      *extract.TextExtractor
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Pipeline. The rules are validated up front.
func New(loader core.Loader, generator core.Generator, sinks SinkFactory, opts Options, logger *slog.Logger) (*Pipeline, error) {
	text, err := extract.NewTextExtractor(opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:    loader,
		generator: generator,
		sinks:     sinks,
		text:      text,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Run loads rawURL, extracts its content and asks the generator for a
// summary. Only a failed load is an error; a failed generation yields
// the error marker as the summary.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*core.Brief, error) {
	brief, err := p.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	brief.Summary = p.generator.Generate(ctx, prompt.Summary(Context(brief)))
	p.logger.Info("summary generated",
		"url", brief.Metadata.URL,
		"chars", len(brief.Summary),
		"duration", time.Since(start),
	)
	return brief, nil
}

// Extract runs every stage except generation.
func (p *Pipeline) Extract(ctx context.Context, rawURL string) (*core.Brief, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, core.ErrEmptyURL
	}

	page, err := p.loader.Load(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	var sink core.ImageSink
	if p.sinks != nil {
		pageURL := page.FinalURL
		if pageURL == "" {
			pageURL = page.URL
		}
		sink = p.sinks(pageURL)
	}
	images, err := extract.NewImageExtractor(p.opts.Rules, sink, p.logger)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}

	brief := &core.Brief{
		Metadata: extract.Metadata(page, doc, p.now()),
		Images:   images.Extract(ctx, doc),
		Chunks:   p.text.ExtractDocument(doc),
	}

	fitted := chunk.Fit(brief.Chunks, p.opts.MaxContextWords)
	if len(fitted) < len(brief.Chunks) {
		p.logger.Info("context trimmed to word budget",
			"chunks", len(brief.Chunks),
			"kept", len(fitted),
			"max_words", p.opts.MaxContextWords,
		)
	}
	brief.ContextText = chunk.ContextText(fitted)
	brief.ContextImages = chunk.ContextImages(brief.Images)

	if p.opts.IncludeContent {
		brief.Content = p.content(doc, brief.Metadata.Domain)
	}

	p.logger.Info("page extracted",
		"url", rawURL,
		"title", brief.Metadata.Title,
		"images", len(brief.Images),
		"chunks", len(brief.Chunks),
	)
	return brief, nil
}

// content converts the page's content root to Markdown. Failures only
// leave the section empty.
func (p *Pipeline) content(doc *goquery.Document, domain string) string {
	cleaned, err := p.text.Content(doc)
	if err != nil {
		p.logger.Warn("main content not found", "error", err)
		return ""
	}
	var n core.Normalizer = normalize.New(domain)
	md, err := n.Normalize(cleaned)
	if err != nil {
		p.logger.Warn("markdown conversion failed", "error", err)
		return ""
	}
	return md
}

// Context returns the assembled prompt context of a brief.
func Context(brief *core.Brief) prompt.Context {
	return prompt.Context{Text: brief.ContextText, Images: brief.ContextImages}
}
