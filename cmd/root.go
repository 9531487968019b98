// Package cmd implements the CLI commands for pagebrief using Cobra.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gaurav-prasanna/pagebrief/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Loaded by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger *slog.Logger
)

// Persistent flag variables.
var (
	flagConfig    string
	flagNoBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "pagebrief",
	Short: "pagebrief — summarize a web page and ask questions about it",
	Long: `pagebrief loads a web page in a headless browser, extracts its images,
captions and text, and asks a remote (OpenAI-compatible) or local (Ollama)
model for a structured summary. Follow-up questions are answered from the
same extracted content.

Usage:
  pagebrief summarize <url> [flags]
  pagebrief extract <url> [flags]
  pagebrief serve [flags]`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Config file (default: ./pagebrief.yaml or ~/.config/pagebrief/pagebrief.yaml)")
	flags.String("log_level", "info", "Log level: debug, info, warn, error")
	flags.String("log_format", "text", "Log format: text or json")
	flags.String("mode", "remote", "Generation backend: remote or local")
	flags.String("model", "", "Remote model name")
	flags.String("local_model", "", "Local (Ollama) model name")
	flags.Bool("replay_history", false, "Send earlier Q&A turns with each question")
	flags.Int("max_words", 0, "Word budget for the page context (0 = no limit)")
	flags.BoolVar(&flagNoBrowser, "no_browser", false, "Fetch pages with a plain HTTP GET instead of headless Chrome")
}

// loadConfig resolves the configuration and the process logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(viper.New(), flagConfig, cmd.Flags())
	if err != nil {
		return err
	}
	if flagNoBrowser {
		c.Browser.Enabled = false
	}
	cfg = c
	logger = config.NewLogger(c.Log, os.Stderr)
	slog.SetDefault(logger)
	return nil
}

// errReported marks failures a command has already shown to the user.
var errReported = errors.New("reported")

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
