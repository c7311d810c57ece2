package transcribe

import (
	"context"
)

// Request bundles one finished utterance for transcription.
type Request struct {
	WAV      []byte
	Language string
	Prompt   string
}

// Result carries transcription output.
type Result struct {
	Text    string
	Backend string
}

// Transcriber abstracts speech-to-text backends.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}
