package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a websocket connection the relay needs. Both the
// downstream (gofiber/websocket) and upstream (gorilla/websocket) conns
// satisfy it; tests use in-memory fakes.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens the upstream side of a relay session.
type Dialer interface {
	Dial(ctx context.Context, model string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, model string) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, model string) (Conn, error) {
	return f(ctx, model)
}

// closer closes a Conn exactly once. Closing is the cancellation mechanism
// for a pump blocked in ReadMessage, so both sides get closed as soon as
// either pump exits.
type closer struct {
	conn Conn
	once sync.Once
	err  error
}

func (c *closer) Close() error {
	c.once.Do(func() {
		if c.conn != nil {
			c.err = c.conn.Close()
		}
	})
	return c.err
}

// isExpectedClose reports whether a read/write error is ordinary connection
// shutdown rather than an operational fault. Client disconnects land here
// and are never logged as errors.
func isExpectedClose(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure,
	) {
		return true
	}
	// The downstream conn comes from a different websocket package with
	// its own CloseError type; match on the shared message shape.
	msg := err.Error()
	if strings.Contains(msg, "use of closed network connection") {
		return true
	}
	for _, code := range []string{"close 1000", "close 1001", "close 1005", "close 1006"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
