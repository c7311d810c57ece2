// Package session holds the state machine that turns hotkey edges into
// dictation cycles: capture on press, transcribe, clean, and inject on
// release. Collaborator failures are contained here; every cycle ends
// back in the idle state.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/handfreelabs/handfree/internal/audio"
	"github.com/handfreelabs/handfree/internal/config"
	"github.com/handfreelabs/handfree/internal/transcribe"
)

// Transcriber turns captured audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcribe.Request) (transcribe.Result, error)
}

// Cleaner removes disfluencies. It never fails; at worst it returns the
// input unchanged.
type Cleaner interface {
	Clean(ctx context.Context, text string) string
}

// Injector places text at the cursor of the focused application.
type Injector interface {
	Output(ctx context.Context, text string) error
}

// Deps are the collaborators the orchestrator sequences.
type Deps struct {
	Capture  audio.Capture
	Service  Transcriber
	Cleaner  Cleaner
	Injector Injector
	Sinks    []Sink
}

type recordingSession struct {
	id        string
	startedAt time.Time
}

// Orchestrator owns the application state and drives one dictation
// cycle at a time. Press and release handlers run on the hotkey
// listener goroutine; the transcribe/clean/inject chain runs on a
// per-session goroutine so the listener keeps draining edges while the
// transcribing latch holds.
type Orchestrator struct {
	capture  audio.Capture
	service  Transcriber
	cleaner  Cleaner
	injector Injector
	sinks    []Sink
	logger   *slog.Logger

	minDuration time.Duration
	sampleRate  int
	channels    int
	language    string
	cleanupMode string

	mu      sync.Mutex
	state   State
	current *recordingSession

	processing sync.WaitGroup
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		capture:     deps.Capture,
		service:     deps.Service,
		cleaner:     deps.Cleaner,
		injector:    deps.Injector,
		sinks:       deps.Sinks,
		logger:      logger.With(slog.String("component", "session")),
		minDuration: time.Duration(cfg.Recording.MinDurationMS) * time.Millisecond,
		sampleRate:  cfg.Audio.SampleRate,
		channels:    cfg.Audio.Channels,
		language:    cfg.Transcribe.Language,
		cleanupMode: cfg.Cleanup.Mode,
	}
}

// State reports the current application state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// HandlePress starts a capture, or restarts one when the record key is
// pressed again mid-recording. The restarted capture's buffered audio
// is dropped on purpose. Pressed during transcription, the gesture is
// latched out and nothing happens.
func (o *Orchestrator) HandlePress(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var restarted *recordingSession
	switch o.state {
	case StateTranscribing:
		return
	case StateRecording:
		restarted = o.current
		if _, err := o.capture.Stop(); err != nil {
			o.logger.Warn("stopping capture for restart failed", slogError(err), sessionAttr(restarted.id))
		}
		o.current = nil
		o.state = StateIdle
	}

	id := uuid.NewString()
	if err := o.capture.Start(ctx); err != nil {
		o.logger.Error("audio capture start failed", slogError(err))
		if restarted != nil {
			o.notifyState(StateIdle, restarted.id)
		}
		return
	}

	o.current = &recordingSession{id: id, startedAt: time.Now()}
	o.state = StateRecording
	msg := "recording started"
	if restarted != nil {
		msg = "recording restarted"
	}
	o.logger.Info(msg, sessionAttr(id))
	o.notifyState(StateRecording, id)
}

// HandleRelease stops the capture and, when the recording is long
// enough, hands the session to a processing goroutine. Too-short or
// empty captures are discarded without touching the transcriber.
func (o *Orchestrator) HandleRelease(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateRecording {
		return
	}
	sess := o.current

	pcm, err := o.capture.Stop()
	if err != nil {
		o.logger.Error("audio capture stop failed", slogError(err), sessionAttr(sess.id))
		o.toIdleLocked(sess.id)
		return
	}

	duration := audio.Duration(len(pcm), o.sampleRate, o.channels)
	if len(pcm) == 0 || duration < o.minDuration {
		o.logger.Info("recording discarded",
			slog.Duration("duration", duration),
			sessionAttr(sess.id))
		o.toIdleLocked(sess.id)
		return
	}

	o.state = StateTranscribing
	o.logger.Info("recording stopped",
		slog.Duration("duration", duration),
		sessionAttr(sess.id))
	o.notifyState(StateTranscribing, sess.id)

	// Shutdown must not cancel an in-flight transcription; the
	// processing context detaches from the caller's cancellation.
	o.processing.Add(1)
	go func() {
		defer o.processing.Done()
		o.process(context.WithoutCancel(ctx), sess, pcm, duration)
	}()
}

// Drain blocks until any in-flight processing has finished, or until
// ctx expires.
func (o *Orchestrator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.processing.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandlePanelToggle forwards the auxiliary chord to the sinks. The
// panel itself is an external consumer.
func (o *Orchestrator) HandlePanelToggle() {
	o.logger.Debug("panel toggled")
	for _, s := range o.sinks {
		s.PanelToggled()
	}
}

// process runs the transcribe/clean/inject chain for one session and
// always ends in the idle state.
func (o *Orchestrator) process(ctx context.Context, sess *recordingSession, pcm []byte, duration time.Duration) {
	defer o.finish(sess.id)

	wav, err := audio.EncodeWAV(pcm, o.sampleRate, o.channels)
	if err != nil {
		o.logger.Error("audio encoding failed", slogError(err), sessionAttr(sess.id))
		o.notifyFailed(sess.id, StageAudio, err)
		return
	}

	result, err := o.service.Transcribe(ctx, transcribe.Request{WAV: wav})
	if err != nil {
		o.logger.Error("transcription failed", slogError(err), sessionAttr(sess.id))
		o.notifyFailed(sess.id, StageTranscribe, err)
		return
	}
	if result.Text == "" {
		o.logger.Info("transcription empty", sessionAttr(sess.id))
		return
	}

	text := o.cleaner.Clean(ctx, result.Text)
	if text == "" {
		o.logger.Info("transcript empty after cleanup", sessionAttr(sess.id))
		return
	}

	if err := o.injector.Output(ctx, text); err != nil {
		// The transcript goes into the log: after the clipboard restore
		// it survives nowhere else.
		o.logger.Error("output failed", slogError(err), sessionAttr(sess.id),
			slog.String("text", text))
		o.notifyFailed(sess.id, StageOutput, err)
		return
	}

	rec := Record{
		SessionID:   sess.id,
		Text:        text,
		Duration:    duration,
		Language:    o.language,
		Backend:     result.Backend,
		CleanupMode: o.cleanupMode,
	}
	o.logger.Info("transcript delivered",
		slog.Int("chars", len(text)),
		slog.String("backend", result.Backend),
		sessionAttr(sess.id))
	for _, s := range o.sinks {
		s.Completed(rec)
	}
}

func (o *Orchestrator) finish(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateIdle
	o.current = nil
	o.notifyState(StateIdle, id)
}

// toIdleLocked drops the current session. Callers hold the mutex.
func (o *Orchestrator) toIdleLocked(id string) {
	o.state = StateIdle
	o.current = nil
	o.notifyState(StateIdle, id)
}

func (o *Orchestrator) notifyState(state State, sessionID string) {
	for _, s := range o.sinks {
		s.StateChanged(state, sessionID)
	}
}

func (o *Orchestrator) notifyFailed(sessionID, stage string, err error) {
	for _, s := range o.sinks {
		s.Failed(sessionID, stage, err)
	}
}

func sessionAttr(id string) slog.Attr {
	return slog.String("session_id", id)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
