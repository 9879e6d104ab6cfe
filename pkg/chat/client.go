// Package chat provides a minimal client for batch text completions.
// One call in, one text out; callers decide whether to retry.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pagevox/pagevox/internal/httpc"
	"github.com/pagevox/pagevox/internal/log"
)

const completionsPath = "/v1/chat/completions"

// GenerationError reports a failed completion call, carrying the provider
// status and body for diagnostics.
type GenerationError struct {
	Status int
	Body   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("chat: completion failed: status %d: %s", e.Status, e.Body)
}

// Client calls the provider's chat completion endpoint.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a completion client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     "https://api.openai.com",
		model:       "gpt-4o",
		temperature: 0.7,
		httpClient:  httpc.Client,
		logger:      log.Component("chat"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user prompt pair and returns the response text.
// Failures surface as *GenerationError; there is no retry.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("chat: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat: completion call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &GenerationError{Status: resp.StatusCode, Body: string(detail)}
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("chat: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &GenerationError{Status: resp.StatusCode, Body: "empty completion"}
	}

	text := parsed.Choices[0].Message.Content
	c.logger.Debug("completion received", "model", c.model, "chars", len(text))
	return text, nil
}
