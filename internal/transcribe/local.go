package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/handfreelabs/handfree/internal/config"
)

// localTranscriber shells out to a whisper-cli style recognizer. The command
// template comes from config and receives --audio, --model and --language
// arguments; it must print a JSON object with a text field on stdout.
type localTranscriber struct {
	cmd       []string
	modelPath string
	language  string
	timeout   time.Duration
	mu        sync.Mutex
}

type localResult struct {
	Text string `json:"text"`
}

func NewLocalTranscriber(cfg config.TranscribeConfig, modelPath string) (Transcriber, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Local.Command)
	if err != nil {
		return nil, fmt.Errorf("parse local transcriber command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("local transcriber command is empty")
	}
	return &localTranscriber{
		cmd:       args,
		modelPath: modelPath,
		language:  cfg.Language,
		timeout:   time.Duration(cfg.TimeoutS) * time.Second,
	}, nil
}

func (l *localTranscriber) Transcribe(ctx context.Context, req Request) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.CreateTemp(os.TempDir(), "handfree_stt_*.wav")
	if err != nil {
		return Result{}, &TranscriptionError{Backend: "local", Attempts: 1, Err: fmt.Errorf("temp file: %w", err)}
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if _, err := file.Write(req.WAV); err != nil {
		return Result{}, &TranscriptionError{Backend: "local", Attempts: 1, Err: fmt.Errorf("write wav: %w", err)}
	}
	if err := file.Sync(); err != nil {
		return Result{}, &TranscriptionError{Backend: "local", Attempts: 1, Err: fmt.Errorf("flush wav: %w", err)}
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	base := l.cmd[0]
	cmdArgs := append([]string{}, l.cmd[1:]...)
	cmdArgs = append(cmdArgs, "--audio", file.Name())
	if l.modelPath != "" {
		cmdArgs = append(cmdArgs, "--model", l.modelPath)
	}
	language := req.Language
	if language == "" {
		language = l.language
	}
	if language != "" {
		cmdArgs = append(cmdArgs, "--language", language)
	}

	command := exec.CommandContext(ctx, base, cmdArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return Result{}, &TranscriptionError{Backend: "local", Attempts: 1, Err: fmt.Errorf("transcriber command failed: %w: %s", err, stderr.String())}
	}

	var resp localResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Result{}, &TranscriptionError{Backend: "local", Attempts: 1, Err: fmt.Errorf("decode transcriber output: %w", err)}
	}
	return Result{Text: resp.Text, Backend: "local"}, nil
}
