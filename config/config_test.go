package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// isolate runs the test in an empty directory with an empty HOME.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Mode != "remote" || cfg.LLM.Remote.Model != "meta-llama/Meta-Llama-3-70B-Instruct" {
		t.Errorf("unexpected llm defaults %+v", cfg.LLM)
	}
	if cfg.LLM.Remote.MaxTokens != 512 || cfg.LLM.Remote.Temperature != 0.7 || cfg.LLM.Remote.TopP != 0.9 {
		t.Errorf("unexpected sampling defaults %+v", cfg.LLM.Remote)
	}
	if cfg.LLM.Timeout != 60*time.Second || cfg.Browser.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeouts, got %s / %s", cfg.LLM.Timeout, cfg.Browser.Timeout)
	}
	if cfg.LLM.ReplayHistory {
		t.Error("expected history replay off by default")
	}
	if len(cfg.Rules.ContentRoots) != 2 || cfg.Rules.ContentRoots[0] != "#mw-content-text" {
		t.Errorf("unexpected rules %+v", cfg.Rules)
	}
	if !cfg.Browser.Enabled || cfg.Output.Format != "markdown" {
		t.Errorf("unexpected browser/output defaults %+v %+v", cfg.Browser, cfg.Output)
	}
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := isolate(t)

	yaml := `
llm:
  mode: local
  local:
    model: mistral
output:
  format: json
rules:
  author_marker: Byline-
`
	if err := os.WriteFile(filepath.Join(dir, "pagebrief.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PAGEBRIEF_LLM_REMOTE_API_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAGEBRIEF_LLM_LOCAL_MODEL", "qwen")
	t.Cleanup(func() { os.Unsetenv("PAGEBRIEF_LLM_REMOTE_API_KEY") })

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "markdown", "")
	flags.String("output_dir", "", "")
	if err := flags.Parse([]string{"--format", "pdf"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), "", flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Mode != "local" {
		t.Errorf("expected mode from file, got %q", cfg.LLM.Mode)
	}
	if cfg.LLM.Local.Model != "qwen" {
		t.Errorf("expected env to override file, got %q", cfg.LLM.Local.Model)
	}
	if cfg.LLM.Remote.APIKey != "from-dotenv" {
		t.Errorf("expected key from .env, got %q", cfg.LLM.Remote.APIKey)
	}
	if cfg.Output.Format != "pdf" {
		t.Errorf("expected flag to override file, got %q", cfg.Output.Format)
	}
	if cfg.Output.Dir != "" {
		t.Errorf("expected unset flag to leave output.dir empty, got %q", cfg.Output.Dir)
	}
	if cfg.Rules.AuthorMarker != "Byline-" || len(cfg.Rules.GalleryContainers) == 0 {
		t.Errorf("expected partial rules override, got %+v", cfg.Rules)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)
	if _, err := Load(viper.New(), "missing.yaml", nil); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	base, err := Load(viper.New(), "", nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"llm mode", func(c *Config) { c.LLM.Mode = "cloud" }, "llm.mode"},
		{"remote url", func(c *Config) { c.LLM.Remote.URL = " " }, "llm.remote.url"},
		{"local url", func(c *Config) { c.LLM.Mode = "local"; c.LLM.Local.URL = "" }, "llm.local.url"},
		{"word budget", func(c *Config) { c.LLM.MaxContextWords = -1 }, "max_context_words"},
		{"browser timeout", func(c *Config) { c.Browser.Timeout = 0 }, "browser.timeout"},
		{"format", func(c *Config) { c.Output.Format = "docx" }, "output.format"},
		{"selector", func(c *Config) { c.Rules.GalleryContainers = []string{"div[["} }, "gallery_containers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOptionsConversion(t *testing.T) {
	isolate(t)
	cfg, err := Load(viper.New(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg.LLM.Remote.APIKey = "k"

	opts := cfg.LLMOptions()
	if opts.Remote.APIKey != "k" || opts.Local.URL != "http://localhost:11434/api/chat" {
		t.Errorf("unexpected llm options %+v", opts)
	}
	b := cfg.BrowserOptions()
	if b.ScrollStep != 500 || b.ScrollInterval != 200*time.Millisecond || !b.Headless {
		t.Errorf("unexpected browser options %+v", b)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf).Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info suppressed at warn level, got %q", buf.String())
	}
	NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf).Warn("shown", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("expected JSON record, got %q", buf.String())
	}

	buf.Reset()
	NewLogger(LogConfig{Level: "debug", Format: "text"}, &buf).Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text record, got %q", buf.String())
	}
}
