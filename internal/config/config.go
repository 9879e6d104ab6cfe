// Package config provides environment-driven configuration for pagevox.
// All values have fixed defaults except the provider API key, which is
// required. The resulting Config is read-only after Load.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Defaults for the service. Everything here can be overridden via env vars.
const (
	DefaultAddr            = ":5000"
	DefaultPagesDir        = "./pages"
	DefaultPage            = "index.html"
	DefaultVoice           = "shimmer"
	DefaultChatModel       = "gpt-4o"
	DefaultTTSModel        = "tts-1"
	DefaultTranscribeModel = "whisper-1"
	DefaultSessionModel    = "gpt-4o-realtime-preview-2024-12-17"
	DefaultRelayModel      = "gpt-realtime"

	DefaultTemperature       = 0.8
	DefaultMaxSessionTokens  = 100
	DefaultMaxResponseTokens = 500

	DefaultVADThreshold       = 0.5
	DefaultVADPrefixPadding   = 300 * time.Millisecond
	DefaultVADSilenceDuration = 200 * time.Millisecond

	DefaultInitTimeout    = 15 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	DefaultCloseTimeout   = 10 * time.Second
)

// ErrMissingAPIKey is returned when OPENAI_API_KEY is not set.
var ErrMissingAPIKey = errors.New("config: OPENAI_API_KEY environment variable not set")

// Config holds the full service configuration.
type Config struct {
	Addr     string
	LogLevel string

	OpenAIKey   string
	APIBaseURL  string // HTTP API base, e.g. https://api.openai.com
	RealtimeURL string // websocket endpoint, e.g. wss://api.openai.com/v1/realtime

	PagesDir    string
	DefaultPage string

	Voice           string
	ChatModel       string
	TTSModel        string
	TranscribeModel string
	SessionModel    string
	RelayModel      string

	Temperature       float64
	MaxSessionTokens  int
	MaxResponseTokens int

	VADThreshold       float64
	VADPrefixPadding   time.Duration
	VADSilenceDuration time.Duration

	// Relay timeouts. InitTimeout bounds the wait for the client's first
	// frame; ConnectTimeout bounds upstream dial plus handshake.
	InitTimeout    time.Duration
	ConnectTimeout time.Duration
	CloseTimeout   time.Duration
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	return &Config{
		Addr:     getenv("LISTEN_ADDR", DefaultAddr),
		LogLevel: getenv("LOG_LEVEL", "info"),

		OpenAIKey:   key,
		APIBaseURL:  getenv("OPENAI_API_BASE", "https://api.openai.com"),
		RealtimeURL: getenv("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime"),

		PagesDir:    getenv("PAGES_DIR", DefaultPagesDir),
		DefaultPage: getenv("DEFAULT_PAGE", DefaultPage),

		Voice:           getenv("VOICE", DefaultVoice),
		ChatModel:       getenv("CHAT_MODEL", DefaultChatModel),
		TTSModel:        getenv("TTS_MODEL", DefaultTTSModel),
		TranscribeModel: getenv("TRANSCRIBE_MODEL", DefaultTranscribeModel),
		SessionModel:    getenv("SESSION_MODEL", DefaultSessionModel),
		RelayModel:      getenv("RELAY_MODEL", DefaultRelayModel),

		Temperature:       getenvFloat("TEMPERATURE", DefaultTemperature),
		MaxSessionTokens:  getenvInt("MAX_SESSION_TOKENS", DefaultMaxSessionTokens),
		MaxResponseTokens: getenvInt("MAX_RESPONSE_TOKENS", DefaultMaxResponseTokens),

		VADThreshold:       getenvFloat("VAD_THRESHOLD", DefaultVADThreshold),
		VADPrefixPadding:   getenvDuration("VAD_PREFIX_PADDING", DefaultVADPrefixPadding),
		VADSilenceDuration: getenvDuration("VAD_SILENCE_DURATION", DefaultVADSilenceDuration),

		InitTimeout:    getenvDuration("RELAY_INIT_TIMEOUT", DefaultInitTimeout),
		ConnectTimeout: getenvDuration("RELAY_CONNECT_TIMEOUT", DefaultConnectTimeout),
		CloseTimeout:   getenvDuration("RELAY_CLOSE_TIMEOUT", DefaultCloseTimeout),
	}, nil
}

// getenv returns the env value or the fallback if not set.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
