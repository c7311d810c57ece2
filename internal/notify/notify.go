// Package notify raises desktop notifications for user-actionable
// moments: failed cycles and the local-to-remote transcription
// fallback. Everything else stays in the log.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/handfreelabs/handfree/internal/config"
	"github.com/handfreelabs/handfree/internal/session"
)

const title = "Handfree"

// Notifier implements the orchestrator sink. Notification failures are
// logged and swallowed.
type Notifier struct {
	enabled bool
	log     *slog.Logger
	send    func(title, message string) error
}

func New(cfg config.NotifyConfig, log *slog.Logger) *Notifier {
	return &Notifier{
		enabled: cfg.Enabled,
		log:     log.With(slog.String("component", "notify")),
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func (n *Notifier) StateChanged(state session.State, sessionID string) {}

func (n *Notifier) PanelToggled() {}

func (n *Notifier) Completed(rec session.Record) {}

func (n *Notifier) Failed(sessionID, stage string, err error) {
	if !n.enabled {
		return
	}
	var message string
	switch stage {
	case session.StageOutput:
		message = "Typing the transcript failed. The text is in the daemon log."
	case session.StageTranscribe:
		message = "Transcription failed. Check the daemon log for details."
	default:
		message = "Dictation failed. Check the daemon log for details."
	}
	n.notify(message)
}

// LocalFallback reports that the local model is missing and remote
// transcription took over for the rest of the process.
func (n *Notifier) LocalFallback(model string) {
	if !n.enabled {
		return
	}
	n.notify(fmt.Sprintf("Local model %q is not downloaded, using remote transcription.", model))
}

func (n *Notifier) notify(message string) {
	if err := n.send(title, message); err != nil {
		n.log.Warn("desktop notification failed", slog.String("error", err.Error()))
	}
}
