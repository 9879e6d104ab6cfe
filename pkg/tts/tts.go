// Package tts provides text-to-speech synthesis for the voice assistant.
//
// The Provider interface covers both one-shot synthesis and chunked
// streaming. Streams are finite and not restartable: read until Read
// returns io.EOF, then Close. A stream that ends because synthesis failed
// surfaces a non-EOF error from Read, so callers can always distinguish
// normal completion from failure.
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Stream converts text to audio with chunked output.
	// Chunks are produced as they become available from the provider.
	Stream(ctx context.Context, text string) (AudioStream, error)

	// Close releases any resources held by the provider.
	Close() error
}

// AudioStream is a finite, single-shot sequence of audio chunks.
type AudioStream interface {
	// Read returns the next audio chunk. It returns io.EOF when the stream
	// has completed normally, and any other error when synthesis failed
	// mid-stream.
	Read() ([]byte, error)

	// Close stops the stream and releases resources.
	Close() error

	// Format returns the audio format metadata.
	Format() AudioFormat
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the configured format.
	Audio []byte

	// Format describes the audio encoding.
	Format AudioFormat

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to first byte in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// ContentType returns the MIME type for the encoding.
func (f AudioFormat) ContentType() string {
	switch f.Encoding {
	case EncodingMP3:
		return "audio/mpeg"
	case EncodingOpus:
		return "audio/opus"
	default:
		return "audio/pcm"
	}
}

// Encoding represents audio encoding types.
type Encoding string

const (
	EncodingMP3   Encoding = "mp3"
	EncodingOpus  Encoding = "opus"
	EncodingPCM24 Encoding = "pcm_24000" // 24kHz mono PCM16
)

// OpenAI voice options.
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// OpenAI model options.
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// DefaultStreamTimeout bounds a full streaming synthesis.
const DefaultStreamTimeout = 60 * time.Second
