// Package cmd — serve command.
// Starts the HTTP API: each POST /sessions summarizes a page and opens a
// session that later requests can question, search and export.
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gaurav-prasanna/pagebrief/core/session"
	"github.com/gaurav-prasanna/pagebrief/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session API over HTTP",
	Long: `Serve starts an HTTP server exposing summarization sessions.

Examples:
  pagebrief serve --addr :8080
  curl -X POST localhost:8080/sessions -d '{"url":"https://example.com"}'
  curl -X POST localhost:8080/sessions/<id>/ask -d '{"question":"Who is quoted?"}'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Bool("include_content", false, "Include the page's main content in reports")
	serveCmd.Flags().String("images_dir", ".", "Directory for downloaded images")
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, client, err := newPipeline()
	if err != nil {
		return err
	}

	store := session.NewStore()
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(p, client, store, server.Options{
		Address:        cfg.Server.Address,
		ReplayHistory:  cfg.LLM.ReplayHistory,
		IncludeContent: cfg.Output.IncludeContent,
	}, logger)
	return srv.Start(ctx)
}
