package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pagevox/pagevox/pkg/realtime"
)

func TestDial(t *testing.T) {
	var gotAuth, gotBeta, gotModel string
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBeta = r.Header.Get("OpenAI-Beta")
		gotModel = r.URL.Query().Get("model")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	d := &realtime.Dialer{
		APIKey:           "sk-test",
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		HandshakeTimeout: 5 * time.Second,
	}
	conn, err := d.Dial(context.Background(), "gpt-realtime")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conn.Close()

	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBeta != "realtime=v1" {
		t.Errorf("OpenAI-Beta = %q", gotBeta)
	}
	if gotModel != "gpt-realtime" {
		t.Errorf("model = %q", gotModel)
	}
}

func TestDialRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no upgrade here", http.StatusForbidden)
	}))
	defer srv.Close()

	d := &realtime.Dialer{
		APIKey: "sk-test",
		URL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
	if _, err := d.Dial(context.Background(), "gpt-realtime"); err == nil {
		t.Fatal("expected error for refused upgrade")
	}
}
