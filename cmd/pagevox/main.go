// pagevox: backend for a page-grounded voice assistant.
// Serves the spoken page briefing, turn-based voice chat, realtime session
// issuance, and the duplex realtime relay.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagevox/pagevox/internal/config"
	"github.com/pagevox/pagevox/internal/log"
	"github.com/pagevox/pagevox/internal/observability"
	"github.com/pagevox/pagevox/pkg/chat"
	"github.com/pagevox/pagevox/pkg/knowledge"
	"github.com/pagevox/pagevox/pkg/page"
	"github.com/pagevox/pagevox/pkg/realtime"
	"github.com/pagevox/pagevox/pkg/relay"
	"github.com/pagevox/pagevox/pkg/stt"
	"github.com/pagevox/pagevox/pkg/tts"
	"github.com/pagevox/pagevox/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	synth, err := tts.NewOpenAI(
		tts.WithAPIKey(cfg.OpenAIKey),
		tts.WithVoice(cfg.Voice),
		tts.WithModel(cfg.TTSModel),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("tts init failed", "error", err)
		os.Exit(1)
	}
	defer synth.Close()

	rtDialer := &realtime.Dialer{
		APIKey:           cfg.OpenAIKey,
		URL:              cfg.RealtimeURL,
		HandshakeTimeout: cfg.ConnectTimeout,
	}

	server := web.NewServer(cfg, web.Deps{
		Pages: &page.Extractor{Dir: cfg.PagesDir},
		Compressor: knowledge.NewCompressor(
			chat.NewClient(cfg.OpenAIKey,
				chat.WithBaseURL(cfg.APIBaseURL),
				chat.WithModel(cfg.ChatModel),
			),
		),
		TTS: synth,
		STT: stt.NewTranscriber(cfg.OpenAIKey,
			stt.WithBaseURL(cfg.APIBaseURL),
			stt.WithModel(cfg.TranscribeModel),
		),
		Broker: realtime.NewBroker(cfg.OpenAIKey,
			realtime.WithBrokerBaseURL(cfg.APIBaseURL),
			realtime.WithBrokerModel(cfg.SessionModel),
			realtime.WithBrokerVoice(cfg.Voice),
			realtime.WithBrokerMaxTokens(cfg.MaxSessionTokens),
		),
		Dialer: relay.DialerFunc(func(ctx context.Context, model string) (relay.Conn, error) {
			return rtDialer.Dial(ctx, model)
		}),
		Metrics: observability.New("pagevox"),
		Logger:  log.L(),
	})

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("shutting down")
		if err := server.Shutdown(cfg.CloseTimeout); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Listen(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	// Give in-flight relay sessions a moment to observe closed conns.
	time.Sleep(100 * time.Millisecond)
}
