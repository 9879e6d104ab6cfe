package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pagevox/pagevox/pkg/chat"
)

func TestComplete(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Hello there."}},
			},
		})
	}))
	defer srv.Close()

	c := chat.NewClient("sk-test", chat.WithBaseURL(srv.URL), chat.WithModel("gpt-4o"))
	text, err := c.Complete(context.Background(), "be brief", "say hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Hello there." {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq["model"] != "gpt-4o" {
		t.Errorf("model = %v", gotReq["model"])
	}
	msgs, _ := gotReq["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", gotReq["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be brief" {
		t.Errorf("system message = %v", first)
	}
}

func TestCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := chat.NewClient("sk-test", chat.WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "user")

	var genErr *chat.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d", genErr.Status)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := chat.NewClient("sk-test", chat.WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "user")

	var genErr *chat.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError for empty choices, got %v", err)
	}
}
