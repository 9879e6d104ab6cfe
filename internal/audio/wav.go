// Package audio provides small audio helpers for the offline capture tool:
// WAV framing for raw PCM16 and RMS-based phrase endpointing.
package audio

import (
	"bytes"
	"encoding/binary"
	"io"
)

// EncodeWAVPCM16 wraps raw PCM16LE mono audio bytes in a WAV container.
func EncodeWAVPCM16(pcm []byte, sampleRate int) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteWAVPCM16(&buf, pcm, sampleRate)
	return buf.Bytes()
}

// WriteWAVPCM16 writes raw PCM16LE mono audio bytes to out as a WAV stream.
func WriteWAVPCM16(out io.Writer, pcm []byte, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
		audioFormat   = 1 // PCM
	)
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	dataSize := uint32(len(pcm))
	byteRate := uint32(sampleRate * numChannels * bitsPerSample / 8)
	blockAlign := uint16(numChannels * bitsPerSample / 8)

	type field struct {
		v any
	}
	fields := []field{
		{[]byte("RIFF")},
		{uint32(36) + dataSize},
		{[]byte("WAVE")},
		{[]byte("fmt ")},
		{uint32(16)},
		{uint16(audioFormat)},
		{uint16(numChannels)},
		{uint32(sampleRate)},
		{byteRate},
		{blockAlign},
		{uint16(bitsPerSample)},
		{[]byte("data")},
		{dataSize},
	}
	for _, f := range fields {
		if err := binary.Write(out, binary.LittleEndian, f.v); err != nil {
			return err
		}
	}
	_, err := out.Write(pcm)
	return err
}
