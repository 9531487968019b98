package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gaurav-prasanna/pagebrief/core"
)

const (
	defaultOllamaURL   = "http://localhost:11434/api/chat"
	defaultOllamaModel = "llama3.1"
)

// LocalOptions configures the Ollama chat backend.
type LocalOptions struct {
	URL   string
	Model string
}

// DefaultLocalOptions returns the stock Ollama settings.
func DefaultLocalOptions() LocalOptions {
	return LocalOptions{URL: defaultOllamaURL, Model: defaultOllamaModel}
}

// Local calls an Ollama-compatible /api/chat endpoint without streaming.
type Local struct {
	opts   LocalOptions
	client *http.Client
}

// NewLocal creates a Local backend.
func NewLocal(opts LocalOptions, client *http.Client) *Local {
	def := DefaultLocalOptions()
	if opts.URL == "" {
		opts.URL = def.URL
	}
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Local{opts: opts, client: client}
}

// ollamaRequest is the request body for the Ollama chat API.
type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []core.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

// ollamaResponse is the non-streaming response body of the Ollama chat API.
type ollamaResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

// Name returns the backend name.
func (l *Local) Name() string {
	return string(ModeLocal)
}

// Complete posts the conversation and returns the reply message content.
func (l *Local) Complete(ctx context.Context, messages []core.Message) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:    l.opts.Model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.opts.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := do(l.client, req)
	if err != nil {
		return "", err
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decoding Ollama response: %w", err)
	}
	return resp.Message.Content, nil
}
