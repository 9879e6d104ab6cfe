package stt_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pagevox/pagevox/pkg/stt"
)

func TestTranscribe(t *testing.T) {
	audio := []byte("fake-wav-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model field = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if string(body) != string(audio) {
			t.Errorf("file bytes = %q", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	tr := stt.NewTranscriber("sk-test", stt.WithBaseURL(srv.URL))
	text, err := tr.Transcribe(context.Background(), audio, "clip.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}
}

func TestTranscribeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	tr := stt.NewTranscriber("sk-test", stt.WithBaseURL(srv.URL))
	_, err := tr.Transcribe(context.Background(), []byte("x"), "clip.wav")

	var trErr *stt.TranscriptionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if trErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d", trErr.Status)
	}
}
