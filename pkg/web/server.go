// Package web provides the HTTP and WebSocket surface of pagevox: the
// spoken page briefing, the turn-based voice chat, realtime session
// issuance, and the duplex relay entry point.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/pagevox/pagevox/internal/config"
	"github.com/pagevox/pagevox/internal/observability"
	"github.com/pagevox/pagevox/pkg/knowledge"
	"github.com/pagevox/pagevox/pkg/page"
	"github.com/pagevox/pagevox/pkg/realtime"
	"github.com/pagevox/pagevox/pkg/relay"
	"github.com/pagevox/pagevox/pkg/tts"
)

// Transcriber converts uploaded audio to text. *stt.Transcriber satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// SessionBroker issues upstream realtime session credentials.
// *realtime.Broker satisfies it.
type SessionBroker interface {
	CreateSession(ctx context.Context, doc *page.Document, title string) (*realtime.Credential, error)
}

// Deps are the collaborators the surface wires together.
type Deps struct {
	Pages      *page.Extractor
	Compressor *knowledge.Compressor
	TTS        tts.Provider
	STT        Transcriber
	Broker     SessionBroker
	Dialer     relay.Dialer
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

// Server is the pagevox request surface.
type Server struct {
	app  *fiber.App
	cfg  *config.Config
	deps Deps

	logger *slog.Logger
}

// NewServer builds the fiber app and registers all routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "pagevox",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Post("/summarize-and-speak", s.handleSummarizeAndSpeak)
	app.Post("/voice-chat", s.handleVoiceChat)
	app.Post("/create-talk-session", s.handleCreateTalkSession)

	app.Get("/metrics", adaptor.HTTPHandler(observability.Handler()))

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/realtime", websocket.New(s.handleRealtimeWS))

	s.app = app
	return s
}

// Listen serves on the configured address, blocking until shutdown.
func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// relayConfig maps the service configuration onto one relay session.
func (s *Server) relayConfig() relay.Config {
	return relay.Config{
		DefaultModel:   s.cfg.RelayModel,
		DefaultPage:    s.cfg.DefaultPage,
		InitTimeout:    s.cfg.InitTimeout,
		ConnectTimeout: s.cfg.ConnectTimeout,
		Session: realtime.SessionOptions{
			Voice:              s.cfg.Voice,
			Temperature:        s.cfg.Temperature,
			MaxOutputTokens:    s.cfg.MaxResponseTokens,
			TranscribeModel:    s.cfg.TranscribeModel,
			VADThreshold:       s.cfg.VADThreshold,
			VADPrefixPadding:   s.cfg.VADPrefixPadding,
			VADSilenceDuration: s.cfg.VADSilenceDuration,
		},
	}
}

// handleRealtimeWS is the relay entry point: each accepted connection gets
// its own Session owning both ends for the conversation's lifetime.
func (s *Server) handleRealtimeWS(c *websocket.Conn) {
	sess := relay.NewSession(c, s.deps.Pages, s.deps.Dialer, s.relayConfig(), s.logger, s.deps.Metrics)
	// Run owns both connections from here; errors are already logged and
	// one session's failure never propagates past it.
	_ = sess.Run(context.Background())
}
