package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pagevox/pagevox/pkg/knowledge"
)

// SessionOptions parameterize the session.update configuration event sent
// upstream before any traffic is relayed.
type SessionOptions struct {
	Voice              string
	Temperature        float64
	MaxOutputTokens    int
	TranscribeModel    string
	VADThreshold       float64
	VADPrefixPadding   time.Duration
	VADSilenceDuration time.Duration
}

// DefaultSessionOptions returns the fixed defaults used by the relay.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Voice:              "shimmer",
		Temperature:        0.8,
		MaxOutputTokens:    500,
		TranscribeModel:    "whisper-1",
		VADThreshold:       0.5,
		VADPrefixPadding:   300 * time.Millisecond,
		VADSilenceDuration: 200 * time.Millisecond,
	}
}

// SessionUpdate builds the single session.update event configuring the
// upstream side: modalities, page-grounded instructions, voice, audio
// encodings, input transcription, and voice-activity detection.
func SessionUpdate(title, context string, opts SessionOptions) ([]byte, error) {
	msg := map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"modalities":          []string{"text", "audio"},
			"instructions":        relayInstructions(title, context),
			"voice":               opts.Voice,
			"input_audio_format":  "pcm16",
			"output_audio_format": "pcm16",
			"input_audio_transcription": map[string]any{
				"model": opts.TranscribeModel,
			},
			"turn_detection": map[string]any{
				"type":                "server_vad",
				"threshold":           opts.VADThreshold,
				"prefix_padding_ms":   opts.VADPrefixPadding.Milliseconds(),
				"silence_duration_ms": opts.VADSilenceDuration.Milliseconds(),
			},
			"temperature":                opts.Temperature,
			"max_response_output_tokens": opts.MaxOutputTokens,
		},
	}
	return json.Marshal(msg)
}

// relayInstructions embeds the page context and the fixed behavioral rules
// for the duplex session. The relay's brevity ceiling is looser than the
// broker's so answers can finish their sentences.
func relayInstructions(title, context string) string {
	return fmt.Sprintf(`You are a helpful voice assistant for the webpage '%s'.
Your knowledge is strictly limited to the information provided below.

PAGE CONTEXT:
%s

Rules:
1. Be brief but complete - keep responses under 15 seconds, but always finish your sentences
2. Only answer questions about the page content above
3. If asked about anything not on this page, say: %q
4. Be conversational and helpful
5. Respond in the language the user speaks to you
6. Always complete your sentences - don't cut off mid-thought`,
		title, context, knowledge.FallbackSentence)
}
