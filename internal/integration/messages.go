// Package integration publishes engine events on a NATS bus for
// external consumers such as overlays and status bars. Everything is
// one-way; the engine never reads from the bus.
package integration

import "time"

// Subjects external consumers subscribe to.
const (
	SubjectState      = "handfree.state"
	SubjectTranscript = "handfree.transcript"
)

// StateEvent is broadcast on every state transition. Beyond the three
// engine states it carries "error" after a failed cycle and
// "panel_toggled" for the auxiliary chord, matching the vocabulary the
// overlay indicator understands.
type StateEvent struct {
	State     string    `json:"state"`
	SessionID string    `json:"session_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	At        time.Time `json:"at"`
}

// TranscriptEvent is broadcast once per completed cycle.
type TranscriptEvent struct {
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	DurationMS int64     `json:"duration_ms"`
	Language   string    `json:"language,omitempty"`
	Backend    string    `json:"backend"`
	At         time.Time `json:"at"`
}
