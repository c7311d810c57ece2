package notify

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/handfreelabs/handfree/internal/config"
	"github.com/handfreelabs/handfree/internal/session"
)

func newTestNotifier(enabled bool) (*Notifier, *[]string) {
	n := New(config.NotifyConfig{Enabled: enabled}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var sent []string
	n.send = func(title, message string) error {
		sent = append(sent, message)
		return nil
	}
	return n, &sent
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	n, sent := newTestNotifier(false)

	n.Failed("s1", session.StageOutput, errors.New("boom"))
	n.LocalFallback("base.en")

	if len(*sent) != 0 {
		t.Fatalf("disabled notifier sent %v", *sent)
	}
}

func TestFailedMessages(t *testing.T) {
	n, sent := newTestNotifier(true)

	n.Failed("s1", session.StageOutput, errors.New("all tools failed"))
	n.Failed("s1", session.StageTranscribe, errors.New("boom"))
	n.Failed("s1", session.StageAudio, errors.New("boom"))

	if len(*sent) != 3 {
		t.Fatalf("sent %d notifications, want 3", len(*sent))
	}
	if !strings.Contains((*sent)[0], "daemon log") {
		t.Fatalf("output failure message lacks the recovery hint: %q", (*sent)[0])
	}
	if !strings.Contains((*sent)[1], "Transcription failed") {
		t.Fatalf("unexpected transcription message: %q", (*sent)[1])
	}
}

func TestLocalFallbackMessageNamesModel(t *testing.T) {
	n, sent := newTestNotifier(true)

	n.LocalFallback("base.en")

	if len(*sent) != 1 || !strings.Contains((*sent)[0], `"base.en"`) {
		t.Fatalf("fallback message = %v", *sent)
	}
}

func TestQuietEvents(t *testing.T) {
	n, sent := newTestNotifier(true)

	n.StateChanged(session.StateRecording, "s1")
	n.PanelToggled()
	n.Completed(session.Record{SessionID: "s1", Text: "hello"})

	if len(*sent) != 0 {
		t.Fatalf("quiet events sent %v", *sent)
	}
}

func TestSendFailureSwallowed(t *testing.T) {
	n, _ := newTestNotifier(true)
	n.send = func(title, message string) error { return errors.New("no dbus") }

	n.Failed("s1", session.StageTranscribe, errors.New("boom"))
}
