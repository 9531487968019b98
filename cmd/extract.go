// Package cmd — extract command.
// Runs loading and extraction only and prints what a summary would be
// built from. No generation backend is contacted.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core/chunk"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Print the images and text chunks extracted from a page",
	Long: `Extract loads the page and prints the labeled text chunks and the
image captions exactly as they would be sent to the model.

Examples:
  pagebrief extract https://example.com/news/story
  pagebrief extract https://example.com --no_browser
  pagebrief extract https://example.com --output_dir ./out --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addReportFlags(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	rawURL := strings.TrimSpace(args[0])
	if err := validateURL(rawURL); err != nil {
		return err
	}
	// Extraction only; downloads belong to summarize.
	cfg.Images.Download = false

	p, _, err := newPipeline()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	brief, err := p.Extract(ctx, rawURL)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "✗ Error: %v\n", err)
		return errReported
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "--- TEXT (%d chunks, %d words) ---\n%s\n\n",
		len(brief.Chunks), chunk.Words(brief.ContextText), brief.ContextText)
	fmt.Fprintf(out, "--- IMAGES (%d) ---\n%s\n", len(brief.Images), brief.ContextImages)

	if cfg.Output.Dir != "" {
		path, err := writeReport(brief, cfg.Output.Dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Written: %s\n", path)
	}
	return nil
}
