package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultRealtimeURL is the provider's duplex websocket endpoint.
const DefaultRealtimeURL = "wss://api.openai.com/v1/realtime"

// Dialer opens upstream realtime websocket connections.
type Dialer struct {
	// APIKey authorizes the upstream connection.
	APIKey string

	// URL is the websocket endpoint; DefaultRealtimeURL if empty.
	URL string

	// HandshakeTimeout bounds the dial plus websocket handshake.
	// A finite bound is always applied; zero means 30s.
	HandshakeTimeout time.Duration
}

// Dial connects to the upstream realtime endpoint for the given model.
// The ctx additionally bounds the dial; callers pass a deadline context so a
// slow upstream can never pin a relay session down indefinitely.
func (d *Dialer) Dial(ctx context.Context, model string) (*websocket.Conn, error) {
	endpoint := d.URL
	if endpoint == "" {
		endpoint = DefaultRealtimeURL
	}
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+d.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint+"?model="+url.QueryEscape(model), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime: connect (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime: connect: %w", err)
	}
	return conn, nil
}
