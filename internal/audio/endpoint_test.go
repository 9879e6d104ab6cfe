package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func pcmBlock(amplitude int16, samples int) []byte {
	block := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(block[2*i:], uint16(amplitude))
	}
	return block
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v", got)
	}
	if got := RMS(pcmBlock(0, 256)); got != 0 {
		t.Errorf("RMS(silence) = %v", got)
	}
	if got := RMS(pcmBlock(1000, 256)); got != 1000 {
		t.Errorf("RMS(constant 1000) = %v", got)
	}
}

func TestEndpointerDetectsPhrase(t *testing.T) {
	e := &Endpointer{SampleRate: 16000, Threshold: 300, Pause: 100 * time.Millisecond}

	loud := pcmBlock(2000, 1024)
	quiet := pcmBlock(0, 1024)

	// Silence before speech is discarded.
	if phrase, done := e.Feed(quiet); done || phrase != nil {
		t.Fatal("emitted phrase before any speech")
	}

	if _, done := e.Feed(loud); done {
		t.Fatal("emitted phrase while still speaking")
	}
	if _, done := e.Feed(loud); done {
		t.Fatal("emitted phrase while still speaking")
	}

	// 100ms at 16kHz is 1600 samples; two quiet blocks exceed it.
	if _, done := e.Feed(quiet); done {
		t.Fatal("emitted phrase before pause elapsed")
	}
	phrase, done := e.Feed(quiet)
	if !done {
		t.Fatal("expected phrase after pause")
	}
	if len(phrase) != 4*len(loud) {
		t.Errorf("phrase length = %d, want %d", len(phrase), 4*len(loud))
	}

	// Endpointer resets after emitting.
	if phrase, done := e.Feed(quiet); done || phrase != nil {
		t.Error("emitted phrase from stale state")
	}
}

func TestEndpointerFlush(t *testing.T) {
	e := NewEndpointer()

	if got := e.Flush(); got != nil {
		t.Errorf("Flush with no speech = %v", got)
	}

	loud := pcmBlock(1000, 512)
	e.Feed(loud)
	got := e.Flush()
	if len(got) != len(loud) {
		t.Errorf("flushed %d bytes, want %d", len(got), len(loud))
	}
	if e.Flush() != nil {
		t.Error("second Flush returned data")
	}
}
