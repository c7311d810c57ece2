package audio

import (
	"context"
	"sync"
	"time"
)

// mockCapture produces silence matching how long the capture ran. It keeps
// the daemon usable on machines without an input device.
type mockCapture struct {
	sampleRate int
	channels   int

	mu      sync.Mutex
	running bool
	started time.Time
}

func NewMockCapture(sampleRate, channels int) Capture {
	return &mockCapture{sampleRate: sampleRate, channels: channels}
}

func (m *mockCapture) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	m.running = true
	m.started = time.Now()
	return nil
}

func (m *mockCapture) Stop() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil, nil
	}
	m.running = false

	elapsed := time.Since(m.started)
	if elapsed > 30*time.Second {
		elapsed = 30 * time.Second
	}
	frames := int(elapsed.Seconds() * float64(m.sampleRate))
	return make([]byte, frames*m.channels*2), nil
}

func (m *mockCapture) Close() error {
	_, err := m.Stop()
	return err
}
