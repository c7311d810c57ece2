package transcribe

import (
	"context"
	"fmt"
)

type mockTranscriber struct{}

func NewMockTranscriber() Transcriber {
	return &mockTranscriber{}
}

func (m *mockTranscriber) Transcribe(_ context.Context, req Request) (Result, error) {
	return Result{
		Text:    fmt.Sprintf("[transcript bytes=%d]", len(req.WAV)),
		Backend: "mock",
	}, nil
}
