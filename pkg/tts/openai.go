package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	openAITTSURL   = "https://api.openai.com/v1/audio/speech"
	providerOpenAI = "openai"
)

// OpenAI implements Provider for OpenAI TTS.
type OpenAI struct {
	config       *Config
	client       *http.Client
	streamClient *http.Client
	logger       *slog.Logger
	baseURL      string
}

// NewOpenAI creates a new OpenAI TTS provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAITTSURL
	}

	return &OpenAI{
		config:       cfg,
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{Timeout: cfg.StreamTimeout},
		logger:       cfg.Logger.With("component", "tts.openai"),
		baseURL:      baseURL,
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	resp, err := o.request(ctx, text, o.client)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start).Milliseconds()
	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", o.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    o.outputFormat(),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Stream converts text to audio, yielding chunks as the provider produces
// them. A failed request never yields an empty successful stream: request
// errors are returned here, and mid-stream failures surface from Read.
func (o *OpenAI) Stream(ctx context.Context, text string) (AudioStream, error) {
	resp, err := o.request(ctx, text, o.streamClient)
	if err != nil {
		return nil, err
	}
	return newHTTPStream(resp.Body, o.outputFormat()), nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	o.streamClient.CloseIdleConnections()
	return nil
}

// request performs the synthesis POST and validates the response status.
func (o *OpenAI) request(ctx context.Context, text string, client *http.Client) (*http.Response, error) {
	payload := map[string]interface{}{
		"model": o.config.ModelID,
		"voice": o.config.VoiceID,
		"input": text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("synthesis call: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, o.parseError(resp)
	}
	return resp, nil
}

func (o *OpenAI) outputFormat() AudioFormat {
	switch o.config.OutputFormat {
	case EncodingPCM24:
		return AudioFormat{Encoding: EncodingPCM24, SampleRate: 24000, Channels: 1, BitDepth: 16}
	default:
		return AudioFormat{Encoding: EncodingMP3, SampleRate: 44100, Channels: 1}
	}
}

// parseError extracts an APIError from a non-2xx response.
func (o *OpenAI) parseError(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(detail)
	if err := json.Unmarshal(detail, &apiResp); err == nil && apiResp.Error.Message != "" {
		message = apiResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerOpenAI,
	}
}
