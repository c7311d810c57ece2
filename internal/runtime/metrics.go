package runtime

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/handfreelabs/handfree/internal/session"
)

// sessionMetrics is an orchestrator sink that feeds dictation outcomes
// into the meter. Processing latency is measured from the transcribing
// transition to the terminal completion or failure of the same session.
type sessionMetrics struct {
	sessions   metric.Int64Counter
	processing metric.Float64Histogram
	recording  metric.Float64Histogram

	mu      sync.Mutex
	started map[string]time.Time
	clock   func() time.Time
}

func newSessionMetrics(meter metric.Meter) (*sessionMetrics, error) {
	sessions, err := meter.Int64Counter("handfree.sessions",
		metric.WithDescription("Dictation sessions by terminal outcome."))
	if err != nil {
		return nil, err
	}
	processing, err := meter.Float64Histogram("handfree.processing.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time from end of recording until the transcript was delivered or the session failed."))
	if err != nil {
		return nil, err
	}
	recording, err := meter.Float64Histogram("handfree.recording.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Length of the captured audio for completed sessions."))
	if err != nil {
		return nil, err
	}
	return &sessionMetrics{
		sessions:   sessions,
		processing: processing,
		recording:  recording,
		started:    make(map[string]time.Time),
		clock:      time.Now,
	}, nil
}

func (m *sessionMetrics) StateChanged(state session.State, sessionID string) {
	if state != session.StateTranscribing {
		return
	}
	m.mu.Lock()
	m.started[sessionID] = m.clock()
	m.mu.Unlock()
}

func (m *sessionMetrics) PanelToggled() {}

func (m *sessionMetrics) Completed(rec session.Record) {
	ctx := context.Background()
	m.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "completed")))
	m.recording.Record(ctx, rec.Duration.Seconds())
	if start, ok := m.take(rec.SessionID); ok {
		m.processing.Record(ctx, m.clock().Sub(start).Seconds())
	}
}

func (m *sessionMetrics) Failed(sessionID, stage string, err error) {
	ctx := context.Background()
	m.sessions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", "failed"),
		attribute.String("stage", stage),
	))
	if start, ok := m.take(sessionID); ok {
		m.processing.Record(ctx, m.clock().Sub(start).Seconds())
	}
}

func (m *sessionMetrics) take(sessionID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.started[sessionID]
	if ok {
		delete(m.started, sessionID)
	}
	return start, ok
}
