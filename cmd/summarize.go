// Package cmd — summarize command.
// Runs the pipeline for one URL, prints the image grid and the summary,
// then answers questions about the page read from stdin until EOF or
// "exit".
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/gaurav-prasanna/pagebrief/core/render"
	"github.com/gaurav-prasanna/pagebrief/core/session"
	"github.com/spf13/cobra"
)

var flagNoImages bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Summarize a web page and answer questions about it",
	Long: `Summarize loads the page, extracts its images and text, prints a
structured summary and then reads questions from stdin.

Commands at the prompt:
  /search <query>   search the page text, captions and earlier answers
  /save             write a report including the conversation so far
  exit              leave

Examples:
  pagebrief summarize https://example.com/news/story
  pagebrief summarize https://example.com --mode local --local_model llama3.1
  pagebrief summarize https://example.com --output_dir ./out --format pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	addReportFlags(summarizeCmd)
	summarizeCmd.Flags().String("images_dir", ".", "Directory for downloaded images")
	summarizeCmd.Flags().BoolVar(&flagNoImages, "no_images", false, "Do not download gallery and article images")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	rawURL := strings.TrimSpace(args[0])
	if err := validateURL(rawURL); err != nil {
		return err
	}
	if flagNoImages {
		cfg.Images.Download = false
	}

	p, client, err := newPipeline()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "⏳ Scraping and summarizing %s...\n", rawURL)

	brief, err := p.Run(ctx, rawURL)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to summarize: %v\n", err)
		return errReported
	}

	s, err := session.New()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Reset(brief); err != nil {
		return err
	}

	printBrief(out, brief)

	if cfg.Output.Dir != "" {
		path, err := writeReport(brief, cfg.Output.Dir)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ Write error: %v\n", err)
		} else {
			fmt.Fprintf(out, "✓ Written: %s\n", path)
		}
	}

	save := func(b *core.Brief) (string, error) {
		dir := cfg.Output.Dir
		if dir == "" {
			dir = "."
		}
		return writeReport(b, dir)
	}
	return converse(ctx, cmd.InOrStdin(), out, s, client, save, cfg.LLM.ReplayHistory)
}

// printBrief shows the image grid and the summary.
func printBrief(w io.Writer, brief *core.Brief) {
	title := brief.Metadata.Title
	if title == "" {
		title = brief.Metadata.URL
	}
	fmt.Fprintf(w, "\n# 🧠 %s\n\n", title)
	if len(brief.Images) > 0 {
		fmt.Fprintf(w, "## 📷 Images\n\n%s\n", render.ImageGrid(brief.Images, render.ImagesPerRow))
	}
	fmt.Fprintf(w, "## 📝 Website Summary\n\n%s\n\n", strings.TrimSpace(brief.Summary))
}

const replPrompt = "❓ Ask about the website (/search <query>, /save, exit): "

// converse runs the question loop until in is exhausted, the user types
// exit or ctx is cancelled.
func converse(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	s *session.State,
	gen core.Generator,
	save func(*core.Brief) (string, error),
	replay bool,
) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Fprint(out, replPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == "/save":
			path, err := save(s.Brief())
			if err != nil {
				fmt.Fprintf(out, "✗ Write error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "✓ Written: %s\n", path)
		case strings.HasPrefix(line, "/search"):
			printHits(out, s, strings.TrimSpace(strings.TrimPrefix(line, "/search")))
		default:
			answer, err := s.Ask(ctx, gen, line, replay)
			if err != nil {
				fmt.Fprintf(out, "✗ %v\n", err)
				continue
			}
			fmt.Fprintf(out, "\n%s\n\n", strings.TrimSpace(answer))
		}
	}
}

// printHits runs a session search and lists the results.
func printHits(w io.Writer, s *session.State, query string) {
	if query == "" {
		fmt.Fprintln(w, "usage: /search <query>")
		return
	}
	hits, err := s.Search(query, 5)
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return
	}
	if len(hits) == 0 {
		fmt.Fprintf(w, "No matches for %q\n", query)
		return
	}
	for _, h := range hits {
		fmt.Fprintf(w, "%d. [%s %s] %s\n", h.Rank, h.Kind, h.Label, h.Snippet)
	}
}
