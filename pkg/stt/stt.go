// Package stt provides speech-to-text transcription for uploaded audio.
// One blocking call per transcription; no retry.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pagevox/pagevox/internal/httpc"
	"github.com/pagevox/pagevox/internal/log"
)

const transcriptionsPath = "/v1/audio/transcriptions"

// TranscriptionError reports a failed transcription call.
type TranscriptionError struct {
	Status int
	Body   string
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("stt: transcription failed: status %d: %s", e.Status, e.Body)
}

// Transcriber converts uploaded audio bytes to text.
type Transcriber struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(t *Transcriber) { t.baseURL = strings.TrimRight(u, "/") }
}

// WithModel overrides the transcription model.
func WithModel(model string) Option {
	return func(t *Transcriber) { t.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Transcriber) { t.httpClient = hc }
}

// NewTranscriber creates a Transcriber for the given API key.
func NewTranscriber(apiKey string, opts ...Option) *Transcriber {
	t := &Transcriber{
		apiKey:     apiKey,
		baseURL:    "https://api.openai.com",
		model:      "whisper-1",
		httpClient: httpc.Client,
		logger:     log.Component("stt"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe uploads the audio bytes and returns the transcribed text.
// The filename serves as a format hint for the provider.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("stt: build form: %w", err)
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("stt: build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("stt: build form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("stt: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+transcriptionsPath, &body)
	if err != nil {
		return "", fmt.Errorf("stt: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt: transcription call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &TranscriptionError{Status: resp.StatusCode, Body: string(detail)}
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("stt: decode response: %w", err)
	}

	t.logger.Debug("transcription received", "bytes", len(audio), "chars", len(parsed.Text))
	return parsed.Text, nil
}
