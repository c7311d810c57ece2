// Package audio captures microphone input between hotkey edges and packages
// it for transcription.
package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/handfreelabs/handfree/internal/config"
)

// Capture records one utterance at a time. Start begins buffering, Stop ends
// the take and returns the buffered 16-bit little-endian PCM. Stopping an
// idle capture returns nil audio.
type Capture interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
	Close() error
}

// NewCapture builds the configured capture backend.
func NewCapture(cfg config.AudioConfig) (Capture, error) {
	switch cfg.Backend {
	case "portaudio":
		return NewPortaudioCapture(cfg.SampleRate, cfg.Channels)
	case "exec":
		return NewExecCapture(cfg.RecorderCommand)
	case "mock":
		return NewMockCapture(cfg.SampleRate, cfg.Channels), nil
	default:
		return nil, fmt.Errorf("unsupported audio backend: %s", cfg.Backend)
	}
}

// Duration converts a PCM payload length into recorded time.
func Duration(pcmBytes, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := pcmBytes / (2 * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
