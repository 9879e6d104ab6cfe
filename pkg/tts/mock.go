package tts

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns silent audio proportional to the text length.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// StreamFunc is called when Stream is invoked.
	// If nil, streams the SynthesizeFunc result.
	StreamFunc func(ctx context.Context, text string) (AudioStream, error)

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose operations all fail with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, err
		},
		StreamFunc: func(ctx context.Context, text string) (AudioStream, error) {
			return nil, err
		},
	}
}

// Synthesize records the call and returns mock audio.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record("Synthesize", text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return m.defaultResult(text), nil
}

// Stream records the call and returns a mock stream.
func (m *Mock) Stream(ctx context.Context, text string) (AudioStream, error) {
	m.record("Stream", text)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, text)
	}
	if m.SynthesizeFunc != nil {
		result, err := m.SynthesizeFunc(ctx, text)
		if err != nil {
			return nil, err
		}
		return &bufferStream{data: result.Audio, format: result.Format}, nil
	}
	result := m.defaultResult(text)
	return &bufferStream{data: result.Audio, format: result.Format}, nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// Calls returns all recorded invocations.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of invocations of the named method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Mock) record(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text})
}

func (m *Mock) defaultResult(text string) *AudioResult {
	// Silent audio, roughly natural speech pacing (~20ms per character
	// at 24kHz PCM16).
	silence := make([]byte, len(text)*960)
	return &AudioResult{
		Audio:     silence,
		Format:    AudioFormat{Encoding: EncodingPCM24, SampleRate: 24000, Channels: 1, BitDepth: 16},
		CharCount: len(text),
		LatencyMs: 10,
	}
}
