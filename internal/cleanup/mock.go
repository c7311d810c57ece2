package cleanup

import (
	"context"
	"time"
)

type mockGenerator struct {
	reply string
	err   error
}

// NewMockGenerator returns a generator that echoes a canned rewrite.
func NewMockGenerator() Generator {
	return &mockGenerator{}
}

// NewScriptedGenerator returns a generator with a fixed reply or error,
// for exercising the aggressive-mode fallback paths.
func NewScriptedGenerator(reply string, err error) Generator {
	return &mockGenerator{reply: reply, err: err}
}

func (m *mockGenerator) Generate(ctx context.Context, req Request, consumer func(Chunk) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Millisecond):
	}
	if m.err != nil {
		return m.err
	}
	content := m.reply
	if content == "" {
		content = "[mock rewrite] " + req.Prompt
	}
	return consumer(Chunk{Content: content, Partial: false, Latency: 5 * time.Millisecond})
}
