// Package llm talks to text-generation backends.
// Two backends are supported, a remote OpenAI-compatible chat endpoint and
// a local Ollama server. Both are wrapped by Client, which never returns an
// error: failures come back as text starting with ErrorMarker so they can be
// shown in place of a summary or answer.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gaurav-prasanna/pagebrief/core"
)

// ErrorMarker prefixes every reply produced from a failed request.
const ErrorMarker = "❌ API call failed: "

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 60 * time.Second

// Mode selects the backend.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// Backend sends one chat request and returns the reply text.
type Backend interface {
	Name() string
	Complete(ctx context.Context, messages []core.Message) (string, error)
}

// Options configures the backends.
type Options struct {
	Mode    Mode
	Timeout time.Duration
	Remote  RemoteOptions
	Local   LocalOptions
}

// Client implements core.Generator over a Backend.
type Client struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a Client for the backend selected by opts.Mode.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	httpClient := &http.Client{Timeout: opts.Timeout}

	var backend Backend
	switch opts.Mode {
	case ModeRemote, "":
		backend = NewRemote(opts.Remote, httpClient)
	case ModeLocal:
		backend = NewLocal(opts.Local, httpClient)
	default:
		return nil, fmt.Errorf("unsupported llm mode %q (want remote or local)", opts.Mode)
	}
	return NewClient(backend, logger), nil
}

// NewClient wraps an existing backend.
func NewClient(backend Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{backend: backend, logger: logger}
}

// Backend returns the wrapped backend.
func (c *Client) Backend() Backend {
	return c.backend
}

// Generate sends messages to the backend. Errors are logged and returned
// as ErrorMarker followed by the cause.
func (c *Client) Generate(ctx context.Context, messages []core.Message) string {
	start := time.Now()
	reply, err := c.backend.Complete(ctx, messages)
	if err != nil {
		c.logger.Error("generation failed",
			"backend", c.backend.Name(),
			"messages", len(messages),
			"error", err,
		)
		return ErrorMarker + err.Error()
	}
	c.logger.Debug("generation complete",
		"backend", c.backend.Name(),
		"messages", len(messages),
		"duration", time.Since(start),
	)
	return reply
}
