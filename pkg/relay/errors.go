package relay

import "fmt"

// ProtocolError reports a malformed or incomplete initialization exchange
// on the downstream connection. It is a socket-level failure: the client
// gets one structured error frame and the connection is closed, never an
// HTTP status.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("relay: protocol error: %s: %v", e.Reason, e.Err)
	}
	return "relay: protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
