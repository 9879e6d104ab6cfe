// listen: offline phrase capture and transcription loop.
//
// Reads raw PCM16LE mono audio from stdin (pipe it from your recorder),
// detects phrase boundaries by RMS silence, and prints one transcript per
// phrase until EOF or interrupt:
//
//	arecord -f S16_LE -r 16000 -c 1 -t raw | listen
//	sox -d -t raw -r 16000 -e signed -b 16 -c 1 - | listen
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pagevox/pagevox/internal/audio"
	"github.com/pagevox/pagevox/internal/log"
	"github.com/pagevox/pagevox/pkg/stt"
)

var (
	sampleRate = flag.Int("rate", audio.DefaultSampleRate, "input sample rate (Hz)")
	threshold  = flag.Float64("threshold", audio.DefaultThreshold, "RMS silence threshold")
	pause      = flag.Duration("pause", audio.DefaultPause, "silence duration that ends a phrase")
)

func main() {
	flag.Parse()
	log.Init(os.Getenv("LOG_LEVEL"))

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: OPENAI_API_KEY environment variable is required")
		os.Exit(1)
	}

	transcriber := stt.NewTranscriber(apiKey)
	ep := &audio.Endpointer{
		SampleRate: *sampleRate,
		Threshold:  *threshold,
		Pause:      *pause,
	}

	fmt.Fprintln(os.Stderr, "Listening... speak, then pause. Ctrl+C to stop.")

	block := make([]byte, audio.DefaultBlockSize*2) // 2 bytes per sample
	for {
		n, err := io.ReadFull(os.Stdin, block)
		if n > 0 {
			if phrase, done := ep.Feed(block[:n]); done {
				transcribe(transcriber, phrase, *sampleRate)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				log.Error("read input", "error", err)
				os.Exit(1)
			}
			break
		}
	}

	// Transcribe whatever was buffered when input ended.
	if phrase := ep.Flush(); len(phrase) > 0 {
		transcribe(transcriber, phrase, *sampleRate)
	}
}

func transcribe(transcriber *stt.Transcriber, pcm []byte, sampleRate int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wav := audio.EncodeWAVPCM16(pcm, sampleRate)
	text, err := transcriber.Transcribe(ctx, wav, "phrase.wav")
	if err != nil {
		log.Error("transcription failed", "error", err)
		return
	}
	fmt.Println(text)
}
