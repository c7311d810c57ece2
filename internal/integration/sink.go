package integration

import (
	"log/slog"
	"time"

	"github.com/handfreelabs/handfree/internal/session"
)

// Sink publishes orchestrator events on the bus. Publish failures are
// logged and swallowed; the bus is an observer, never a gate.
type Sink struct {
	client *Client
	log    *slog.Logger
	clock  func() time.Time
}

func NewSink(client *Client, log *slog.Logger) *Sink {
	return &Sink{
		client: client,
		log:    log.With(slog.String("component", "integration")),
		clock:  time.Now,
	}
}

func (s *Sink) StateChanged(state session.State, sessionID string) {
	s.publish(SubjectState, StateEvent{
		State:     state.String(),
		SessionID: sessionID,
		At:        s.clock(),
	})
}

func (s *Sink) PanelToggled() {
	s.publish(SubjectState, StateEvent{
		State: "panel_toggled",
		At:    s.clock(),
	})
}

func (s *Sink) Completed(rec session.Record) {
	s.publish(SubjectTranscript, TranscriptEvent{
		SessionID:  rec.SessionID,
		Text:       rec.Text,
		DurationMS: rec.Duration.Milliseconds(),
		Language:   rec.Language,
		Backend:    rec.Backend,
		At:         s.clock(),
	})
}

func (s *Sink) Failed(sessionID, stage string, err error) {
	s.publish(SubjectState, StateEvent{
		State:     "error",
		SessionID: sessionID,
		Stage:     stage,
		At:        s.clock(),
	})
}

func (s *Sink) publish(subject string, v any) {
	if err := s.client.Publish(subject, v); err != nil {
		s.log.Warn("bus publish failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}
