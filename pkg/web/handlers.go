package web

import (
	"bufio"
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pagevox/pagevox/pkg/page"
)

// pageRequest is the JSON body shared by the page-scoped endpoints.
type pageRequest struct {
	PageName string `json:"page_name"`
}

// handleRoot is the liveness endpoint.
func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to the pagevox voice assistant backend!",
	})
}

// handleSummarizeAndSpeak produces a spoken briefing of a page: extract
// context, build the knowledge base, phrase the welcome line, and stream
// the synthesized audio.
func (s *Server) handleSummarizeAndSpeak(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil || req.PageName == "" {
		return s.badRequest(c, "summarize-and-speak", "page_name required")
	}

	ctx := c.Context()

	doc, err := s.deps.Pages.Extract(req.PageName)
	if err != nil {
		return s.stageError(c, "summarize-and-speak", "extract", err)
	}

	kb, err := s.deps.Compressor.Build(ctx, doc)
	if err != nil {
		return s.stageError(c, "summarize-and-speak", "knowledge", err)
	}

	welcome, err := s.deps.Compressor.Welcome(ctx, doc.Title, kb)
	if err != nil {
		return s.stageError(c, "summarize-and-speak", "welcome", err)
	}

	return s.streamSpeech(c, "summarize-and-speak", welcome)
}

// handleVoiceChat answers one spoken question about a page: transcribe the
// upload, rebuild the knowledge base, phrase a grounded answer, and stream
// the synthesized audio.
func (s *Server) handleVoiceChat(c *fiber.Ctx) error {
	pageName := c.FormValue("page_name")
	if pageName == "" {
		return s.badRequest(c, "voice-chat", "page_name required")
	}
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return s.badRequest(c, "voice-chat", "audio file required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return s.stageError(c, "voice-chat", "upload", err)
	}
	audio, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return s.stageError(c, "voice-chat", "upload", err)
	}

	ctx := c.Context()

	userText, err := s.deps.STT.Transcribe(ctx, audio, fileHeader.Filename)
	if err != nil {
		return s.stageError(c, "voice-chat", "transcribe", err)
	}
	s.logger.Info("voice chat turn", "page", pageName, "transcript_chars", len(userText))

	doc, err := s.deps.Pages.Extract(pageName)
	if err != nil {
		return s.stageError(c, "voice-chat", "extract", err)
	}

	kb, err := s.deps.Compressor.Build(ctx, doc)
	if err != nil {
		return s.stageError(c, "voice-chat", "knowledge", err)
	}

	answer, err := s.deps.Compressor.Answer(ctx, kb, userText)
	if err != nil {
		return s.stageError(c, "voice-chat", "answer", err)
	}

	return s.streamSpeech(c, "voice-chat", answer)
}

// handleCreateTalkSession issues an upstream realtime session scoped to the
// page and hands the short-lived credential to the client.
func (s *Server) handleCreateTalkSession(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil || req.PageName == "" {
		return s.badRequest(c, "create-talk-session", "page_name required")
	}

	doc, err := s.deps.Pages.Extract(req.PageName)
	if err != nil {
		return s.stageError(c, "create-talk-session", "extract", err)
	}

	cred, err := s.deps.Broker.CreateSession(c.Context(), doc, doc.Title)
	if err != nil {
		return s.stageError(c, "create-talk-session", "broker", err)
	}

	s.countRequest("create-talk-session", fiber.StatusOK)
	return c.JSON(cred)
}

// streamSpeech synthesizes the text and streams the audio bytes to the
// client. Synthesis failures before the first byte surface as a 500; a
// mid-stream failure aborts the response body.
func (s *Server) streamSpeech(c *fiber.Ctx, route, text string) error {
	stream, err := s.deps.TTS.Stream(c.Context(), text)
	if err != nil {
		return s.stageError(c, route, "synthesize", err)
	}

	s.countRequest(route, fiber.StatusOK)
	c.Set(fiber.HeaderContentType, stream.Format().ContentType())
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stream.Close()
		for {
			chunk, err := stream.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					// Too late for a status change; abort the body so the
					// client sees a broken stream, not a clean end.
					s.logger.Error("speech stream failed", "route", route, "error", err)
				}
				return
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

// stageError maps a pipeline failure onto the HTTP contract: 404 for an
// unknown page, 500 for any other stage failure.
func (s *Server) stageError(c *fiber.Ctx, route, stage string, err error) error {
	status := fiber.StatusInternalServerError
	var notFound *page.NotFoundError
	if errors.As(err, &notFound) {
		status = fiber.StatusNotFound
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.ProviderErrors.WithLabelValues(stage).Inc()
	}
	s.countRequest(route, status)
	s.logger.Error("request failed", "route", route, "stage", stage, "error", err)

	return c.Status(status).JSON(fiber.Map{"detail": err.Error()})
}

func (s *Server) badRequest(c *fiber.Ctx, route, detail string) error {
	s.countRequest(route, fiber.StatusBadRequest)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": detail})
}

func (s *Server) countRequest(route string, status int) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
