package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/handfreelabs/handfree/internal/config"
	"github.com/handfreelabs/handfree/internal/session"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startTestBus runs an embedded server on a random port and connects a
// client to it.
func startTestBus(t *testing.T) *Client {
	t.Helper()
	srv, err := StartEmbedded(config.IntegrationConfig{Embedded: true, Port: -1}, newLogger())
	if err != nil {
		t.Fatalf("start embedded server: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	client, err := Connect(config.IntegrationConfig{Servers: []string{srv.ClientURL()}}, newLogger())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestStartEmbeddedDisabled(t *testing.T) {
	srv, err := StartEmbedded(config.IntegrationConfig{Embedded: false}, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv != nil {
		t.Fatalf("expected no server when embedded is disabled")
	}
	srv.Shutdown()
	if url := srv.ClientURL(); url != "" {
		t.Fatalf("nil server has client url %q", url)
	}
}

func TestConnectRequiresServers(t *testing.T) {
	if _, err := Connect(config.IntegrationConfig{}, newLogger()); err == nil {
		t.Fatalf("expected error without servers")
	}
}

func TestSinkPublishesStateAndTranscript(t *testing.T) {
	client := startTestBus(t)

	states := make(chan []byte, 16)
	transcripts := make(chan []byte, 16)
	if _, err := client.Subscribe(SubjectState, func(data []byte) { states <- data }); err != nil {
		t.Fatalf("subscribe state: %v", err)
	}
	if _, err := client.Subscribe(SubjectTranscript, func(data []byte) { transcripts <- data }); err != nil {
		t.Fatalf("subscribe transcript: %v", err)
	}

	sink := NewSink(client, newLogger())
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sink.clock = func() time.Time { return at }

	sink.StateChanged(session.StateRecording, "sess-1")
	sink.Completed(session.Record{
		SessionID: "sess-1",
		Text:      "hello world",
		Duration:  1500 * time.Millisecond,
		Language:  "en",
		Backend:   "groq",
	})
	if err := client.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	var state StateEvent
	select {
	case data := <-states:
		if err := json.Unmarshal(data, &state); err != nil {
			t.Fatalf("unmarshal state: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no state event received")
	}
	if state.State != "recording" || state.SessionID != "sess-1" || !state.At.Equal(at) {
		t.Fatalf("state event = %+v", state)
	}

	var tr TranscriptEvent
	select {
	case data := <-transcripts:
		if err := json.Unmarshal(data, &tr); err != nil {
			t.Fatalf("unmarshal transcript: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no transcript event received")
	}
	if tr.Text != "hello world" || tr.DurationMS != 1500 || tr.Backend != "groq" {
		t.Fatalf("transcript event = %+v", tr)
	}
}

func TestSinkPublishesErrorsAndPanelEvents(t *testing.T) {
	client := startTestBus(t)

	states := make(chan StateEvent, 16)
	if _, err := client.Subscribe(SubjectState, func(data []byte) {
		var ev StateEvent
		if err := json.Unmarshal(data, &ev); err == nil {
			states <- ev
		}
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sink := NewSink(client, newLogger())
	sink.Failed("sess-2", session.StageOutput, io.ErrUnexpectedEOF)
	sink.PanelToggled()
	if err := client.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := map[string]StateEvent{}
	for len(got) < 2 {
		select {
		case ev := <-states:
			got[ev.State] = ev
		case <-time.After(2 * time.Second):
			t.Fatalf("events received so far: %v", got)
		}
	}
	if ev := got["error"]; ev.SessionID != "sess-2" || ev.Stage != session.StageOutput {
		t.Fatalf("error event = %+v", ev)
	}
	if _, ok := got["panel_toggled"]; !ok {
		t.Fatalf("panel event missing")
	}
}

func TestClientHealthy(t *testing.T) {
	client := startTestBus(t)
	if !client.Healthy() {
		t.Fatalf("connected client reports unhealthy")
	}

	var nilClient *Client
	if nilClient.Healthy() {
		t.Fatalf("nil client reports healthy")
	}
}
