// Package config loads pagebrief settings from defaults, an optional
// pagebrief.yaml, a .env file, PAGEBRIEF_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagebrief/core/extract"
	"github.com/gaurav-prasanna/pagebrief/core/fetch"
	"github.com/gaurav-prasanna/pagebrief/core/llm"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by pagebrief, e.g.
// PAGEBRIEF_LLM_REMOTE_API_KEY for llm.remote.api_key.
const EnvPrefix = "PAGEBRIEF"

// Config holds all configuration for pagebrief.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Browser BrowserConfig `mapstructure:"browser"`
	Images  ImagesConfig  `mapstructure:"images"`
	Output  OutputConfig  `mapstructure:"output"`
	Server  ServerConfig  `mapstructure:"server"`
	Rules   extract.Rules `mapstructure:"rules"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// LLMConfig selects and tunes the generation backend.
type LLMConfig struct {
	Mode            string        `mapstructure:"mode"` // remote or local
	Timeout         time.Duration `mapstructure:"timeout"`
	ReplayHistory   bool          `mapstructure:"replay_history"`
	MaxContextWords int           `mapstructure:"max_context_words"`
	Remote          RemoteConfig  `mapstructure:"remote"`
	Local           LocalConfig   `mapstructure:"local"`
}

// RemoteConfig configures the OpenAI-compatible endpoint.
type RemoteConfig struct {
	URL         string  `mapstructure:"url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
}

// LocalConfig configures the Ollama endpoint.
type LocalConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

// BrowserConfig configures page loading.
type BrowserConfig struct {
	Enabled        bool          `mapstructure:"enabled"` // false = plain HTTP GET
	Headless       bool          `mapstructure:"headless"`
	ChromePath     string        `mapstructure:"chrome_path"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ScrollStep     int           `mapstructure:"scroll_step"`
	ScrollInterval time.Duration `mapstructure:"scroll_interval"`
	MaxScrolls     int           `mapstructure:"max_scrolls"`
}

// ImagesConfig controls image downloads.
type ImagesConfig struct {
	Download bool   `mapstructure:"download"`
	Dir      string `mapstructure:"dir"`
}

// OutputConfig controls report files.
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`    // empty = no report
	Format         string `mapstructure:"format"` // markdown, json or pdf
	IncludeContent bool   `mapstructure:"include_content"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// Formats lists the accepted report formats.
var Formats = []string{"markdown", "json", "pdf"}

// SetDefaults registers every key with its default value. Keys must be
// known to viper for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	remote := llm.DefaultRemoteOptions()
	local := llm.DefaultLocalOptions()
	browser := fetch.DefaultBrowserOptions()
	rules := extract.DefaultRules()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("llm.mode", string(llm.ModeRemote))
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.replay_history", false)
	v.SetDefault("llm.max_context_words", 0)
	v.SetDefault("llm.remote.url", remote.URL)
	v.SetDefault("llm.remote.api_key", "")
	v.SetDefault("llm.remote.model", remote.Model)
	v.SetDefault("llm.remote.max_tokens", remote.MaxTokens)
	v.SetDefault("llm.remote.temperature", remote.Temperature)
	v.SetDefault("llm.remote.top_p", remote.TopP)
	v.SetDefault("llm.local.url", local.URL)
	v.SetDefault("llm.local.model", local.Model)

	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.headless", browser.Headless)
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.user_agent", browser.UserAgent)
	v.SetDefault("browser.timeout", browser.Timeout)
	v.SetDefault("browser.scroll_step", browser.ScrollStep)
	v.SetDefault("browser.scroll_interval", browser.ScrollInterval)
	v.SetDefault("browser.max_scrolls", browser.MaxScrolls)

	v.SetDefault("images.download", true)
	v.SetDefault("images.dir", ".")

	v.SetDefault("output.dir", "")
	v.SetDefault("output.format", "markdown")
	v.SetDefault("output.include_content", false)

	v.SetDefault("server.address", ":8080")

	v.SetDefault("rules.gallery_containers", rules.GalleryContainers)
	v.SetDefault("rules.gallery_captions", rules.GalleryCaptions)
	v.SetDefault("rules.article_containers", rules.ArticleContainers)
	v.SetDefault("rules.author_marker", rules.AuthorMarker)
	v.SetDefault("rules.caption_keywords", rules.CaptionKeywords)
	v.SetDefault("rules.content_roots", rules.ContentRoots)
}

// Load builds a Config. path names an explicit config file; when empty,
// pagebrief.yaml is looked up in the working directory and then in
// $HOME/.config/pagebrief, and a missing file is not an error. A .env
// file in the working directory is loaded into the environment first.
// Known flags in flags override everything else, e.g. --output_dir sets
// output.dir.
func Load(v *viper.Viper, path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pagebrief")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pagebrief"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKeys maps flags whose names do not follow the key path.
var flagKeys = map[string]string{
	"output_dir":      "output.dir",
	"format":          "output.format",
	"log_level":       "log.level",
	"log_format":      "log.format",
	"mode":            "llm.mode",
	"model":           "llm.remote.model",
	"local_model":     "llm.local.model",
	"replay_history":  "llm.replay_history",
	"include_content": "output.include_content",
	"addr":            "server.address",
	"images_dir":      "images.dir",
	"max_words":       "llm.max_context_words",
}

// bindFlags binds every known flag to its config key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("binding flag --%s: %w", f.Name, bindErr)
		}
	})
	return err
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []func() error{
		c.Log.Validate,
		c.LLM.Validate,
		c.Browser.Validate,
		c.Output.Validate,
		c.Rules.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (l LogConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", l.Format)
	}
	return nil
}

func (l LLMConfig) Validate() error {
	switch llm.Mode(l.Mode) {
	case llm.ModeRemote:
		if strings.TrimSpace(l.Remote.URL) == "" {
			return fmt.Errorf("llm.remote.url is required in remote mode")
		}
	case llm.ModeLocal:
		if strings.TrimSpace(l.Local.URL) == "" {
			return fmt.Errorf("llm.local.url is required in local mode")
		}
	default:
		return fmt.Errorf("llm.mode must be remote or local (got %q)", l.Mode)
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be greater than zero")
	}
	if l.MaxContextWords < 0 {
		return fmt.Errorf("llm.max_context_words must not be negative")
	}
	return nil
}

func (b BrowserConfig) Validate() error {
	if b.Timeout <= 0 {
		return fmt.Errorf("browser.timeout must be greater than zero")
	}
	if b.ScrollStep <= 0 || b.MaxScrolls <= 0 {
		return fmt.Errorf("browser.scroll_step and browser.max_scrolls must be greater than zero")
	}
	return nil
}

func (o OutputConfig) Validate() error {
	for _, f := range Formats {
		if o.Format == f {
			return nil
		}
	}
	return fmt.Errorf("output.format must be one of %s (got %q)", strings.Join(Formats, ", "), o.Format)
}

// LLMOptions converts the LLM section for llm.New.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Mode:    llm.Mode(c.LLM.Mode),
		Timeout: c.LLM.Timeout,
		Remote: llm.RemoteOptions{
			URL:         c.LLM.Remote.URL,
			APIKey:      c.LLM.Remote.APIKey,
			Model:       c.LLM.Remote.Model,
			MaxTokens:   c.LLM.Remote.MaxTokens,
			Temperature: c.LLM.Remote.Temperature,
			TopP:        c.LLM.Remote.TopP,
		},
		Local: llm.LocalOptions{
			URL:   c.LLM.Local.URL,
			Model: c.LLM.Local.Model,
		},
	}
}

// BrowserOptions converts the browser section for fetch.NewBrowserLoader.
func (c *Config) BrowserOptions() fetch.BrowserOptions {
	return fetch.BrowserOptions{
		Timeout:        c.Browser.Timeout,
		UserAgent:      c.Browser.UserAgent,
		ChromePath:     c.Browser.ChromePath,
		Headless:       c.Browser.Headless,
		ScrollStep:     c.Browser.ScrollStep,
		ScrollInterval: c.Browser.ScrollInterval,
		MaxScrolls:     c.Browser.MaxScrolls,
	}
}
