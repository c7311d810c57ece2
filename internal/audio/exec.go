package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

// execCapture runs a recorder command (arecord, sox, rec) that writes raw
// 16-bit little-endian PCM to stdout for as long as it lives. Stop kills the
// process and returns whatever had been written.
type execCapture struct {
	cmd []string

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	command *exec.Cmd
	out     bytes.Buffer
}

func NewExecCapture(command string) (Capture, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse recorder command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("recorder command is empty")
	}
	return &execCapture{cmd: args}, nil
}

func (c *execCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	base := c.cmd[0]
	args := append([]string{}, c.cmd[1:]...)
	command := exec.CommandContext(runCtx, base, args...)
	c.out.Reset()
	command.Stdout = &c.out

	if err := command.Start(); err != nil {
		cancel()
		return fmt.Errorf("start recorder command: %w", err)
	}
	c.command = command
	c.cancel = cancel
	c.running = true
	return nil
}

func (c *execCapture) Stop() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, nil
	}
	c.running = false
	c.cancel()
	// The recorder dies from the kill, so its exit status carries no signal.
	_ = c.command.Wait()
	c.command = nil
	c.cancel = nil

	pcm := append([]byte(nil), c.out.Bytes()...)
	c.out.Reset()
	return pcm, nil
}

func (c *execCapture) Close() error {
	_, err := c.Stop()
	return err
}
