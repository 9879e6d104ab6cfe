// Package relay implements the duplex realtime voice relay: one downstream
// client connection bridged to one upstream provider session for the
// lifetime of a conversation.
//
// Each Session exclusively owns its two connection handles and runs two pump
// goroutines, one per direction, forwarding frames verbatim. Sessions are
// fully independent; there is no cross-session state. When either side
// closes or fails, both connections are closed and the session ends; the
// upstream connection never outlives the downstream one.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/pagevox/pagevox/internal/observability"
	"github.com/pagevox/pagevox/pkg/page"
	"github.com/pagevox/pagevox/pkg/realtime"
)

// State is the lifecycle state of a relay session.
type State int

const (
	StateInit State = iota
	StateAwaitingInit
	StateConnecting
	StateConfiguring
	StateRelaying
	StateClosing
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAwaitingInit:
		return "awaiting_init"
	case StateConnecting:
		return "connecting"
	case StateConfiguring:
		return "configuring"
	case StateRelaying:
		return "relaying"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ContextResolver resolves a page selector to its extracted document.
// *page.Extractor satisfies it.
type ContextResolver interface {
	Extract(name string) (*page.Document, error)
}

// Config carries the per-session fixed parameters.
type Config struct {
	// DefaultModel is used when the init frame omits a model.
	DefaultModel string

	// DefaultPage is used when the init frame omits a page selector.
	DefaultPage string

	// InitTimeout bounds the wait for the client's init frame.
	InitTimeout time.Duration

	// ConnectTimeout bounds upstream dial plus handshake.
	ConnectTimeout time.Duration

	// Session parameterizes the upstream session.update event.
	Session realtime.SessionOptions
}

// initMessage is the single frame the client must send before anything else.
type initMessage struct {
	ClientSecret string `json:"client_secret"`
	Model        string `json:"model"`
	PageName     string `json:"page_name"`
}

// errorFrame is the one structured error notification sent downstream when
// a session fails before relaying begins.
type errorFrame struct {
	Error string `json:"error"`
}

// Session is one active relay conversation. Create with NewSession and
// drive with Run; a Session is single-use.
type Session struct {
	id     string
	cfg    Config
	pages  ContextResolver
	dialer Dialer

	downstream *closer
	upstream   *closer

	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	state State
}

// NewSession wraps an accepted downstream connection in a relay session.
// The session takes ownership of the connection.
func NewSession(downstream Conn, pages ContextResolver, dialer Dialer, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Session {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-realtime"
	}
	if cfg.DefaultPage == "" {
		cfg.DefaultPage = "index.html"
	}
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = 15 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	id := uuid.NewString()
	return &Session{
		id:         id,
		cfg:        cfg,
		pages:      pages,
		dialer:     dialer,
		downstream: &closer{conn: downstream},
		logger:     logger.With("session_id", id),
		metrics:    metrics,
	}
}

// ID returns the session's identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	s.logger.Debug("session state", "state", next.String())
}

// Run drives the session through its lifecycle: read the init frame, dial
// and configure the upstream, pump both directions, and tear down. It
// returns nil for sessions that ended by ordinary disconnect on either
// side. Both connections are guaranteed closed on return.
func (s *Session) Run(ctx context.Context) error {
	defer s.teardown()

	s.setState(StateAwaitingInit)
	init, err := s.readInit()
	if err != nil {
		return s.fail("init", err)
	}

	model := init.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	pageName := init.PageName
	if pageName == "" {
		pageName = s.cfg.DefaultPage
	}

	s.setState(StateConnecting)
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	up, err := s.dialer.Dial(dialCtx, model)
	cancel()
	if err != nil {
		s.sendErrorFrame("failed to reach the realtime service")
		return s.fail("connect", err)
	}
	s.upstream = &closer{conn: up}

	s.setState(StateConfiguring)
	doc, err := s.pages.Extract(pageName)
	if err != nil {
		s.sendErrorFrame(fmt.Sprintf("unknown page %q", pageName))
		return s.fail("context", err)
	}
	update, err := realtime.SessionUpdate(doc.Title, doc.ContextString(), s.cfg.Session)
	if err != nil {
		return s.fail("configure", err)
	}
	if err := up.WriteMessage(websocket.TextMessage, update); err != nil {
		return s.fail("configure", err)
	}
	s.logger.Info("relay session configured", "model", model, "page", pageName)

	s.setState(StateRelaying)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
		defer s.metrics.ActiveSessions.Dec()
	}
	return s.pumpBoth()
}

// readInit reads and parses exactly one initialization frame, under the
// configured deadline. A missing credential is a hard failure: one error
// frame is sent and the upstream is never dialed.
func (s *Session) readInit() (*initMessage, error) {
	conn := s.downstream.conn
	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.InitTimeout)); err != nil {
		return nil, fmt.Errorf("relay: set init deadline: %w", err)
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("relay: read init message: %w", err)
	}
	// Clear the deadline; relayed traffic has no per-message bound.
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("relay: clear init deadline: %w", err)
	}

	var init initMessage
	if err := json.Unmarshal(raw, &init); err != nil {
		s.sendErrorFrame("malformed init message")
		return nil, &ProtocolError{Reason: "malformed init message", Err: err}
	}
	if init.ClientSecret == "" {
		s.sendErrorFrame("Missing client_secret")
		return nil, &ProtocolError{Reason: "missing client_secret"}
	}
	return &init, nil
}

// pumpBoth runs the two forwarding loops until either ends, then closes
// both connections so the surviving pump unblocks, and joins. Both pump
// errors are kept: the pump that ends first closes both connections, so
// the survivor always reports a benign close, and that must never shadow
// the failing pump's real error.
func (s *Session) pumpBoth() error {
	var g errgroup.Group
	var toUpstreamErr, toDownstreamErr error

	g.Go(func() error {
		toUpstreamErr = s.pump(s.downstream.conn, s.upstream.conn, observability.DirectionUpstream)
		s.closeBoth()
		return nil
	})
	g.Go(func() error {
		toDownstreamErr = s.pump(s.upstream.conn, s.downstream.conn, observability.DirectionDownstream)
		s.closeBoth()
		return nil
	})

	_ = g.Wait()
	s.setState(StateClosing)
	if err := firstFault(toUpstreamErr, toDownstreamErr); err != nil {
		s.logger.Error("relay ended with error", "error", err)
		if s.metrics != nil {
			s.metrics.RelayFailures.WithLabelValues("relaying").Inc()
		}
		return err
	}
	s.logger.Info("relay session ended")
	return nil
}

// firstFault returns the first error that is an operational fault rather
// than an ordinary connection shutdown, or nil if both are benign.
func firstFault(errs ...error) error {
	for _, err := range errs {
		if err != nil && !isExpectedClose(err) {
			return err
		}
	}
	return nil
}

// pump forwards messages verbatim from src to dst, one at a time. Order is
// preserved within the direction; payloads are never inspected. The loop
// ends with the first read or write error, which includes the connection
// being closed by the teardown path.
func (s *Session) pump(src, dst Conn, direction string) error {
	for {
		messageType, msg, err := src.ReadMessage()
		if err != nil {
			return err
		}
		if err := dst.WriteMessage(messageType, msg); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.RelayMessages.WithLabelValues(direction).Inc()
		}
	}
}

// fail records a pre-relay failure and leaves teardown to the deferred
// cleanup. Ordinary disconnects are not reported as errors.
func (s *Session) fail(stage string, err error) error {
	s.setState(StateFailed)
	if isExpectedClose(err) {
		s.logger.Info("session ended during setup", "stage", stage)
		return nil
	}
	if s.metrics != nil {
		s.metrics.RelayFailures.WithLabelValues(stage).Inc()
	}
	s.logger.Error("session setup failed", "stage", stage, "error", err)
	return fmt.Errorf("relay: %s: %w", stage, err)
}

// sendErrorFrame best-effort writes one structured error to the client.
// Only used before relaying begins, while this goroutine is the sole writer.
func (s *Session) sendErrorFrame(msg string) {
	frame, err := json.Marshal(errorFrame{Error: msg})
	if err != nil {
		return
	}
	_ = s.downstream.conn.WriteMessage(websocket.TextMessage, frame)
}

// teardown closes whatever connections remain open. Close-time errors are
// non-fatal by policy.
func (s *Session) teardown() {
	s.closeBoth()
	s.setState(StateTerminated)
}

func (s *Session) closeBoth() {
	if s.upstream != nil {
		_ = s.upstream.Close()
	}
	_ = s.downstream.Close()
}
