package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Capture defaults matching the offline listen tool.
const (
	DefaultSampleRate = 16000
	DefaultBlockSize  = 1024 // samples per block
	DefaultThreshold  = 300  // RMS amplitude on int16 samples
	DefaultPause      = time.Second
)

// Endpointer detects phrase boundaries in a stream of PCM16LE mono blocks.
// Audio is buffered from the first loud block until silence has lasted for
// the configured pause, at which point the buffered phrase is emitted.
type Endpointer struct {
	SampleRate int
	Threshold  float64
	Pause      time.Duration

	buf           []byte
	speaking      bool
	silentSamples int
}

// NewEndpointer returns an Endpointer with the default capture settings.
func NewEndpointer() *Endpointer {
	return &Endpointer{
		SampleRate: DefaultSampleRate,
		Threshold:  DefaultThreshold,
		Pause:      DefaultPause,
	}
}

// Feed consumes one block of PCM16LE mono audio. When a phrase has just
// ended (silence exceeded the pause while speech was buffered), it returns
// the phrase bytes and true; otherwise nil and false.
func (e *Endpointer) Feed(block []byte) ([]byte, bool) {
	loud := RMS(block) > e.Threshold

	switch {
	case loud:
		e.speaking = true
		e.silentSamples = 0
		e.buf = append(e.buf, block...)
	case e.speaking:
		// Keep recording through brief pauses.
		e.buf = append(e.buf, block...)
		e.silentSamples += len(block) / 2
		pauseSamples := int(float64(e.SampleRate) * e.Pause.Seconds())
		if e.silentSamples > pauseSamples {
			return e.Flush(), true
		}
	}
	return nil, false
}

// Flush returns any buffered phrase and resets the endpointer.
func (e *Endpointer) Flush() []byte {
	phrase := e.buf
	e.buf = nil
	e.speaking = false
	e.silentSamples = 0
	return phrase
}

// RMS computes the root mean square amplitude of PCM16LE samples.
func RMS(block []byte) float64 {
	n := len(block) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(block[2*i:]))
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(n))
}
