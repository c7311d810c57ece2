// Package output places transcribed text into the focused application.
//
// The default path writes the text to the system clipboard, replays the
// platform paste keystroke, and restores whatever the clipboard held
// before. A clipboard-free mode types the text key by key through the
// platform typing tool instead.
package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/handfreelabs/handfree/internal/config"
)

// Error reports a failed injection and which tools were attempted.
type Error struct {
	Tried []string
	Err   error
}

func (e *Error) Error() string {
	if len(e.Tried) > 0 {
		return fmt.Sprintf("text injection failed (tried %s): %v", strings.Join(e.Tried, ", "), e.Err)
	}
	return fmt.Sprintf("text injection failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Injector delivers text to the focused application. All calls are
// serialized; concurrent sessions would otherwise interleave clipboard
// writes and keystrokes.
type Injector struct {
	cfg    config.OutputConfig
	tools  Tools
	logger *slog.Logger
	goos   string
	mu     sync.Mutex

	run        func(ctx context.Context, timeout time.Duration, argv []string, stdin string) error
	readClip   func() (string, error)
	writeClip  func(text string) error
	pressPaste func() error
	sleep      func(d time.Duration)
}

func NewInjector(cfg config.OutputConfig, tools Tools, logger *slog.Logger) *Injector {
	return &Injector{
		cfg:        cfg,
		tools:      tools,
		logger:     logger.With(slog.String("component", "output")),
		goos:       runtime.GOOS,
		run:        runTool,
		readClip:   clipboard.ReadAll,
		writeClip:  clipboard.WriteAll,
		pressPaste: pressPaste,
		sleep:      time.Sleep,
	}
}

// Output injects text at the cursor of the focused application. Empty
// text is a no-op so callers can pass transcription results through
// unchecked.
func (i *Injector) Output(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cfg.SkipClipboard {
		return i.typeText(ctx, text)
	}
	return i.pasteText(ctx, text)
}

// pasteText is the clipboard round trip: snapshot, write, paste
// keystroke, restore. The snapshot is best effort, but once captured it
// is restored on every exit path, after a short delay that gives the
// foreground application time to read the pasted content.
func (i *Injector) pasteText(ctx context.Context, text string) error {
	previous, err := i.readClip()
	captured := err == nil
	if !captured {
		i.logger.Debug("clipboard snapshot failed", slogError(err))
	}

	if err := i.writeClip(text); err != nil {
		return &Error{Err: fmt.Errorf("write clipboard: %w", err)}
	}
	if captured {
		defer func() {
			i.sleep(time.Duration(i.cfg.RestoreDelayMS) * time.Millisecond)
			if err := i.writeClip(previous); err != nil {
				i.logger.Warn("clipboard restore failed", slogError(err))
			}
		}()
	}
	i.sleep(time.Duration(i.cfg.PasteSettleMS) * time.Millisecond)

	chain := i.pasteChain()
	if len(chain) == 0 {
		return &Error{Err: errors.New("no paste tool available")}
	}
	return i.walk(ctx, chain)
}

// typeText delivers the text through the platform typing tool without
// touching the clipboard. Windows has no standalone typing tool, so it
// falls back to the paste path there.
func (i *Injector) typeText(ctx context.Context, text string) error {
	chain := i.typeChain(text)
	if len(chain) == 0 {
		if i.goos == "windows" {
			return i.pasteText(ctx, text)
		}
		return &Error{Err: errors.New("no typing tool available")}
	}
	return i.walk(ctx, chain)
}

// walk tries each tool in priority order until one succeeds.
func (i *Injector) walk(ctx context.Context, chain []toolCall) error {
	tried := make([]string, 0, len(chain))
	var lastErr error
	for _, step := range chain {
		if err := ctx.Err(); err != nil {
			return &Error{Tried: tried, Err: err}
		}
		err := i.runStep(ctx, step)
		if err == nil {
			i.logger.Debug("text injected", slog.String("tool", step.tool))
			return nil
		}
		tried = append(tried, step.tool)
		lastErr = err
		i.logger.Debug("injection tool failed", slog.String("tool", step.tool), slogError(err))
	}
	return &Error{Tried: tried, Err: lastErr}
}

func (i *Injector) runStep(ctx context.Context, step toolCall) error {
	if len(step.argv) == 0 {
		return i.pressPaste()
	}
	return i.run(ctx, step.timeout, step.argv, step.stdin)
}

func (i *Injector) toolTimeout() time.Duration {
	return time.Duration(i.cfg.ToolTimeoutS) * time.Second
}

func (i *Injector) typeTimeout() time.Duration {
	return time.Duration(i.cfg.TypeTimeoutS) * time.Second
}

func runTool(ctx context.Context, timeout time.Duration, argv []string, stdin string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %v: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
