package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// portaudioCapture reads the default input device through a polling loop so
// Stop never blocks on a stream read that has no data to deliver.
type portaudioCapture struct {
	sampleRate int
	channels   int

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	samples []int16
	running bool
	done    chan struct{}
}

func NewPortaudioCapture(sampleRate, channels int) (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &portaudioCapture{
		sampleRate: sampleRate,
		channels:   channels,
		buffer:     make([]int16, framesPerBuffer),
	}, nil
}

func (c *portaudioCapture) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	c.samples = make([]int16, 0, c.sampleRate*30)
	c.done = make(chan struct{})

	stream, err := portaudio.OpenDefaultStream(c.channels, 0, float64(c.sampleRate), framesPerBuffer, c.buffer)
	if err != nil {
		return fmt.Errorf("open capture stream: %w", err)
	}
	c.stream = stream
	c.running = true

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		c.stream = nil
		c.running = false
		return fmt.Errorf("start capture stream: %w", err)
	}

	go c.captureLoop()
	return nil
}

func (c *portaudioCapture) captureLoop() {
	defer close(c.done)

	for {
		c.mu.Lock()
		running := c.running
		stream := c.stream
		c.mu.Unlock()
		if !running || stream == nil {
			return
		}

		available, err := stream.AvailableToRead()
		if err != nil || available == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := stream.Read(); err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		c.mu.Lock()
		if c.running {
			c.samples = append(c.samples, c.buffer...)
		}
		c.mu.Unlock()
	}
}

func (c *portaudioCapture) Stop() ([]byte, error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil, nil
	}
	c.running = false
	stream := c.stream
	c.stream = nil
	samples := c.samples
	c.samples = nil
	done := c.done
	c.mu.Unlock()

	// The loop polls every 10ms, so it notices the stop quickly.
	if done != nil {
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}
	if stream != nil {
		_ = stream.Stop()
		_ = stream.Close()
	}

	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}
	return pcm, nil
}

func (c *portaudioCapture) Close() error {
	_, _ = c.Stop()
	return portaudio.Terminate()
}
