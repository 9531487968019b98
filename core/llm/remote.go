package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gaurav-prasanna/pagebrief/core"
)

const (
	defaultRemoteURL   = "https://api.hyperbolic.xyz/v1/chat/completions"
	defaultRemoteModel = "meta-llama/Meta-Llama-3-70B-Instruct"
)

// RemoteOptions configures the OpenAI-compatible chat backend.
type RemoteOptions struct {
	URL         string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultRemoteOptions returns the stock remote settings, without a key.
func DefaultRemoteOptions() RemoteOptions {
	return RemoteOptions{
		URL:         defaultRemoteURL,
		Model:       defaultRemoteModel,
		MaxTokens:   512,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

// Remote calls a chat-completions endpoint with bearer authentication.
type Remote struct {
	opts   RemoteOptions
	client *http.Client
}

// NewRemote creates a Remote backend. Unset URL and model fall back to the
// defaults.
func NewRemote(opts RemoteOptions, client *http.Client) *Remote {
	def := DefaultRemoteOptions()
	if opts.URL == "" {
		opts.URL = def.URL
	}
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Remote{opts: opts, client: client}
}

type remoteRequest struct {
	Messages    []core.Message `json:"messages"`
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	TopP        float64        `json:"top_p"`
}

type remoteResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Name returns the backend name.
func (r *Remote) Name() string {
	return string(ModeRemote)
}

// Complete posts the conversation and returns the first choice's content.
func (r *Remote) Complete(ctx context.Context, messages []core.Message) (string, error) {
	body, err := json.Marshal(remoteRequest{
		Messages:    messages,
		Model:       r.opts.Model,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
		TopP:        r.opts.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.opts.APIKey)

	respBody, err := do(r.client, req)
	if err != nil {
		return "", err
	}

	var resp remoteResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// do sends req and returns the body of a 2xx response.
func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
