package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pagevox/pagevox/internal/config"
	"github.com/pagevox/pagevox/pkg/knowledge"
	"github.com/pagevox/pagevox/pkg/page"
	"github.com/pagevox/pagevox/pkg/realtime"
	"github.com/pagevox/pagevox/pkg/tts"
	"github.com/pagevox/pagevox/pkg/web"
)

type fakeCompleter struct{}

func (fakeCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	return "generated text for: " + userPrompt, nil
}

type fakeTranscriber struct {
	text string
	err  error

	mu    sync.Mutex
	audio []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	f.mu.Lock()
	f.audio = append([]byte(nil), audio...)
	f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeTranscriber) received() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audio
}

type fakeBroker struct {
	cred *realtime.Credential
	err  error
}

func (f *fakeBroker) CreateSession(_ context.Context, _ *page.Document, _ string) (*realtime.Credential, error) {
	return f.cred, f.err
}

func newTestServer(t *testing.T, mutate func(*web.Deps)) *web.Server {
	t.Helper()

	pagesDir := t.TempDir()
	html := `<html><head><title>Acme</title></head>
<body><nav><a href="/">Home</a></nav><main><h2>Products</h2></main></body></html>`
	if err := os.WriteFile(filepath.Join(pagesDir, "index.html"), []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Addr:        ":0",
		PagesDir:    pagesDir,
		DefaultPage: "index.html",
	}
	deps := web.Deps{
		Pages:      &page.Extractor{Dir: pagesDir},
		Compressor: knowledge.NewCompressor(fakeCompleter{}),
		TTS:        tts.NewMock(),
		STT:        &fakeTranscriber{text: "what are your products?"},
		Broker:     &fakeBroker{cred: &realtime.Credential{ClientSecret: "ek_test", Model: "gpt-realtime"}},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return web.NewServer(cfg, deps)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Detail
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, nil)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Message == "" {
		t.Error("empty liveness message")
	}
}

func TestSummarizeAndSpeak(t *testing.T) {
	s := newTestServer(t, nil)

	resp, err := s.App().Test(jsonRequest(http.MethodPost, "/summarize-and-speak", `{"page_name":"index.html"}`), 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "audio/") {
		t.Errorf("content type = %q", got)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(audio) == 0 {
		t.Error("empty audio body")
	}
}

func TestSummarizeAndSpeakValidation(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("missing page_name", func(t *testing.T) {
		resp, err := s.App().Test(jsonRequest(http.MethodPost, "/summarize-and-speak", `{}`))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("unknown page", func(t *testing.T) {
		resp, err := s.App().Test(jsonRequest(http.MethodPost, "/summarize-and-speak", `{"page_name":"nope.html"}`))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d", resp.StatusCode)
		}
		if detail := decodeDetail(t, resp); detail == "" {
			t.Error("missing error detail")
		}
	})
}

func TestSummarizeAndSpeakSynthesisFailure(t *testing.T) {
	s := newTestServer(t, func(d *web.Deps) {
		d.TTS = tts.WithError(errors.New("synthesis unavailable"))
	})

	resp, err := s.App().Test(jsonRequest(http.MethodPost, "/summarize-and-speak", `{"page_name":"index.html"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func voiceChatRequest(t *testing.T, pageName string, audio []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if pageName != "" {
		if err := form.WriteField("page_name", pageName); err != nil {
			t.Fatal(err)
		}
	}
	if audio != nil {
		part, err := form.CreateFormFile("audio", "question.wav")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(audio)
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/voice-chat", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func TestVoiceChat(t *testing.T) {
	transcriber := &fakeTranscriber{text: "what are your products?"}
	s := newTestServer(t, func(d *web.Deps) {
		d.STT = transcriber
	})

	audio := []byte("wav-audio-bytes")
	resp, err := s.App().Test(voiceChatRequest(t, "index.html", audio), 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "audio/") {
		t.Errorf("content type = %q", got)
	}
	if !bytes.Equal(transcriber.received(), audio) {
		t.Errorf("transcriber received %q", transcriber.received())
	}
}

func TestVoiceChatValidation(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("missing page_name", func(t *testing.T) {
		resp, err := s.App().Test(voiceChatRequest(t, "", []byte("x")))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("missing audio", func(t *testing.T) {
		resp, err := s.App().Test(voiceChatRequest(t, "index.html", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})
}

func TestVoiceChatTranscriptionFailure(t *testing.T) {
	s := newTestServer(t, func(d *web.Deps) {
		d.STT = &fakeTranscriber{err: errors.New("transcription unavailable")}
	})

	resp, err := s.App().Test(voiceChatRequest(t, "index.html", []byte("x")))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCreateTalkSession(t *testing.T) {
	s := newTestServer(t, nil)

	resp, err := s.App().Test(jsonRequest(http.MethodPost, "/create-talk-session", `{"page_name":"index.html"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var cred realtime.Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		t.Fatal(err)
	}
	if cred.ClientSecret != "ek_test" || cred.Model != "gpt-realtime" {
		t.Errorf("credential = %+v", cred)
	}
}

func TestCreateTalkSessionBrokerFailure(t *testing.T) {
	s := newTestServer(t, func(d *web.Deps) {
		d.Broker = &fakeBroker{err: errors.New("issuance failed")}
	})

	resp, err := s.App().Test(jsonRequest(http.MethodPost, "/create-talk-session", `{"page_name":"index.html"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRealtimeWSRequiresUpgrade(t *testing.T) {
	s := newTestServer(t, nil)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/ws/realtime", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
