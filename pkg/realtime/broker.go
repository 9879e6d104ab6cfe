// Package realtime talks to the provider's realtime voice API: it issues
// short-lived session credentials, dials the duplex websocket endpoint, and
// assembles the session configuration event.
package realtime

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
	"github.com/pagevox/pagevox/pkg/knowledge"
	"github.com/pagevox/pagevox/pkg/page"
)

const sessionsPath = "/v1/realtime/sessions"

// Credential is a short-lived, single-use token authorizing one upcoming
// realtime connection. The secret must never be logged.
type Credential struct {
	ClientSecret string `json:"client_secret"`
	Model        string `json:"model"`
}

// BrokerError reports a failed session-issuance call, carrying the provider
// status and body for diagnostics.
type BrokerError struct {
	Status int
	Body   string
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("realtime: session creation failed: status %d: %s", e.Status, e.Body)
}

// Broker requests upstream realtime sessions scoped to a page context.
// Session issuance is never retried: the call is not idempotent-safe, since
// it may succeed server-side while the client times out.
type Broker struct {
	apiKey     string
	baseURL    string
	model      string
	voice      string
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBrokerBaseURL overrides the API base URL (used by tests).
func WithBrokerBaseURL(u string) BrokerOption {
	return func(b *Broker) { b.baseURL = strings.TrimRight(u, "/") }
}

// WithBrokerModel sets the realtime model requested at issuance.
func WithBrokerModel(model string) BrokerOption {
	return func(b *Broker) { b.model = model }
}

// WithBrokerVoice sets the session voice.
func WithBrokerVoice(voice string) BrokerOption {
	return func(b *Broker) { b.voice = voice }
}

// WithBrokerMaxTokens caps the response length of brokered sessions.
func WithBrokerMaxTokens(n int) BrokerOption {
	return func(b *Broker) { b.maxTokens = n }
}

// WithBrokerHTTPClient overrides the HTTP client.
func WithBrokerHTTPClient(hc *http.Client) BrokerOption {
	return func(b *Broker) { b.httpClient = hc }
}

// NewBroker creates a session broker for the given API key.
func NewBroker(apiKey string, opts ...BrokerOption) *Broker {
	b := &Broker{
		apiKey:     apiKey,
		baseURL:    "https://api.openai.com",
		model:      "gpt-4o-realtime-preview-2024-12-17",
		voice:      "shimmer",
		maxTokens:  100,
		httpClient: httpc.Client,
		logger:     log.Component("realtime.broker"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type sessionRequest struct {
	Model                   string  `json:"model"`
	Voice                   string  `json:"voice"`
	Instructions            string  `json:"instructions"`
	Temperature             float64 `json:"temperature"`
	MaxResponseOutputTokens int     `json:"max_response_output_tokens"`
}

type sessionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
}

// CreateSession requests one upstream realtime session grounded on the page
// document. Non-success responses surface as *BrokerError.
func (b *Broker) CreateSession(ctx context.Context, doc *page.Document, title string) (*Credential, error) {
	body, err := json.Marshal(sessionRequest{
		Model:                   b.model,
		Voice:                   b.voice,
		Instructions:            sessionInstructions(title, doc.ContextString()),
		Temperature:             0.8,
		MaxResponseOutputTokens: b.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("realtime: marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+sessionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("realtime: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("realtime: session call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &BrokerError{Status: resp.StatusCode, Body: string(detail)}
	}

	var parsed sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("realtime: decode session response: %w", err)
	}
	if parsed.ClientSecret.Value == "" {
		return nil, &BrokerError{Status: resp.StatusCode, Body: "missing client_secret in response"}
	}

	model := parsed.Model
	if model == "" {
		model = b.model
	}

	// Session id only; the secret stays out of the logs.
	b.logger.Info("realtime session created", "session_id", parsed.ID, "model", model)

	return &Credential{ClientSecret: parsed.ClientSecret.Value, Model: model}, nil
}

// sessionInstructions splices the page context into the fixed behavioral
// template used at session issuance.
func sessionInstructions(title, context string) string {
	return fmt.Sprintf(`You are a helpful voice assistant for the webpage '%s'.
Your knowledge is strictly limited to the information provided below.

PAGE CONTEXT:
%s

Rules:
1. Be extremely brief - responses should be under 10 seconds (25-30 words max)
2. Only answer questions about the page content above
3. If asked about anything not on this page, say: %q
4. Be conversational and helpful
5. Always respond in the language the user speaks to you`,
		title, context, knowledge.FallbackSentence)
}
