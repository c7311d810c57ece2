package session

import "time"

// Record describes one completed dictation cycle. Sinks receive it only
// after injection succeeded.
type Record struct {
	SessionID   string
	Text        string
	Duration    time.Duration
	Language    string
	Backend     string
	CleanupMode string
}

// Stages named in failure notifications.
const (
	StageAudio      = "audio"
	StageTranscribe = "transcribe"
	StageOutput     = "output"
)

// Sink receives one-way notifications from the orchestrator. Calls
// arrive on the orchestration path, so implementations must return
// promptly and never call back into the orchestrator.
type Sink interface {
	StateChanged(state State, sessionID string)
	PanelToggled()
	Completed(rec Record)
	Failed(sessionID, stage string, err error)
}
