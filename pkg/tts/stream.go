package tts

import (
	"io"
	"sync"
)

// streamChunkSize is the read granularity for HTTP body streams.
const streamChunkSize = 4096

// httpStream adapts a streaming HTTP response body to AudioStream.
// A short read error from the body is surfaced as-is from Read, never
// masked as a clean end of stream.
type httpStream struct {
	body   io.ReadCloser
	format AudioFormat

	mu     sync.Mutex
	closed bool
}

func newHTTPStream(body io.ReadCloser, format AudioFormat) *httpStream {
	return &httpStream{body: body, format: format}
}

func (s *httpStream) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}

	buf := make([]byte, streamChunkSize)
	n, err := s.body.Read(buf)
	if n > 0 {
		// Deliver the chunk first; a terminal error reappears on the
		// next Read.
		return buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *httpStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func (s *httpStream) Format() AudioFormat {
	return s.format
}

// bufferStream serves a fully buffered result as an AudioStream.
// Used by the mock provider.
type bufferStream struct {
	data   []byte
	format AudioFormat
	pos    int
	closed bool
}

func (s *bufferStream) Read() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	end := s.pos + streamChunkSize
	if end > len(s.data) {
		end = len(s.data)
	}
	chunk := s.data[s.pos:end]
	s.pos = end
	return chunk, nil
}

func (s *bufferStream) Close() error {
	s.closed = true
	return nil
}

func (s *bufferStream) Format() AudioFormat {
	return s.format
}
