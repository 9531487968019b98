// Package cmd — component wiring shared by the commands.
package cmd

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/gaurav-prasanna/pagebrief/core/fetch"
	"github.com/gaurav-prasanna/pagebrief/core/llm"
	"github.com/gaurav-prasanna/pagebrief/core/output"
	"github.com/gaurav-prasanna/pagebrief/core/pipeline"
	"github.com/gaurav-prasanna/pagebrief/core/render"
	"github.com/spf13/cobra"
)

// addReportFlags registers the report flags; config binds them by name.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("output_dir", "", "Write a report to this directory")
	cmd.Flags().String("format", "markdown", "Report format: markdown, json or pdf")
	cmd.Flags().Bool("include_content", false, "Include the page's main content in reports")
}

// validateURL requires a scheme and host.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s (must include scheme, e.g. https://example.com)", rawURL)
	}
	return nil
}

// newLoader returns the browser loader, or the HTTP loader when the
// browser is disabled.
func newLoader() core.Loader {
	if !cfg.Browser.Enabled {
		return fetch.NewHTTPLoader(cfg.Browser.Timeout, cfg.Browser.UserAgent)
	}
	return fetch.NewBrowserLoader(cfg.BrowserOptions(), logger)
}

// imageSinks stores each run's downloads under a directory named after
// the page, e.g. ./example_com_news/images/image_3.jpg.
func imageSinks() pipeline.SinkFactory {
	if !cfg.Images.Download {
		return nil
	}
	return func(pageURL string) core.ImageSink {
		writer, err := output.New(filepath.Join(cfg.Images.Dir, output.FilenameFromURL(pageURL)))
		if err != nil {
			logger.Warn("image downloads disabled", "error", err)
			return nil
		}
		return fetch.NewImageDownloader(writer, pageURL, cfg.Browser.UserAgent)
	}
}

// newPipeline builds the pipeline and its generation client from cfg.
func newPipeline() (*pipeline.Pipeline, *llm.Client, error) {
	client, err := llm.New(cfg.LLMOptions(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing generation client: %w", err)
	}
	p, err := pipeline.New(newLoader(), client, imageSinks(), pipeline.Options{
		Rules:           cfg.Rules,
		MaxContextWords: cfg.LLM.MaxContextWords,
		IncludeContent:  cfg.Output.IncludeContent,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing pipeline: %w", err)
	}
	return p, client, nil
}

// selectRenderer creates the Renderer for a report format.
func selectRenderer(format string, includeContent bool) (core.Renderer, error) {
	switch format {
	case "markdown":
		return render.NewMarkdownRenderer(includeContent), nil
	case "json":
		return render.NewJSONRenderer(), nil
	case "pdf":
		return render.NewPDFRenderer(includeContent), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want markdown, json or pdf)", format)
	}
}

// writeReport renders brief in the configured format and writes it to dir.
func writeReport(brief *core.Brief, dir string) (string, error) {
	renderer, err := selectRenderer(cfg.Output.Format, cfg.Output.IncludeContent)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(brief)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	writer, err := output.New(dir)
	if err != nil {
		return "", fmt.Errorf("initializing output writer: %w", err)
	}
	return writer.WriteReport(brief.Metadata.URL, data, renderer.Extension())
}
