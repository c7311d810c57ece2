package hotkey

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/handfreelabs/handfree/internal/config"
)

// ChordID names a bound gesture.
type ChordID string

const (
	ChordRecord ChordID = "record"
	ChordPanel  ChordID = "panel"
)

// Edge is one transition of a bound chord.
type Edge struct {
	Chord   ChordID
	Pressed bool
}

type boundChord struct {
	id    ChordID
	chord Chord
	held  bool
}

// Listener runs the passive hook and turns raw key events into chord edges.
// A chord emits exactly one press edge until it is released again; KeyHold
// auto-repeat events never produce edges.
type Listener struct {
	logger *slog.Logger
	edges  chan Edge

	mu      sync.Mutex
	chords  []*boundChord
	mods    map[string]bool
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	hookStart func() chan hook.Event
	hookEnd   func()
}

func NewListener(cfg config.HotkeyConfig, logger *slog.Logger) (*Listener, error) {
	l := &Listener{
		logger:    logger.With(slog.String("component", "hotkey")),
		edges:     make(chan Edge, 16),
		mods:      make(map[string]bool),
		hookStart: hook.Start,
		hookEnd:   hook.End,
	}

	record, err := ParseChord(cfg.RecordChord)
	if err != nil {
		return nil, fmt.Errorf("record chord: %w", err)
	}
	l.chords = append(l.chords, &boundChord{id: ChordRecord, chord: record})

	if cfg.PanelChord != "" {
		panel, err := ParseChord(cfg.PanelChord)
		if err != nil {
			return nil, fmt.Errorf("panel chord: %w", err)
		}
		l.chords = append(l.chords, &boundChord{id: ChordPanel, chord: panel})
	}
	return l, nil
}

// Edges delivers chord transitions to the orchestrator.
func (l *Listener) Edges() <-chan Edge {
	return l.edges
}

// Start checks hook prerequisites and begins consuming events. A missing
// capability comes back as a *PermissionError.
func (l *Listener) Start() error {
	if err := preflight(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.stop = make(chan struct{})
	l.mu.Unlock()

	events := l.hookStart()
	if runtime.GOOS == "darwin" {
		l.logger.Info("keyboard hook started; if keys do not register, grant Accessibility permission in System Settings")
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-l.stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				l.process(ev)
			}
		}
	}()
	return nil
}

// Stop shuts the hook down. Safe to call more than once.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stop)
	l.mu.Unlock()

	l.hookEnd()
	l.wg.Wait()
}

// IsHeld reports whether the chord is currently held down.
func (l *Listener) IsHeld(id ChordID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, bc := range l.chords {
		if bc.id == id {
			return bc.held
		}
	}
	return false
}

func (l *Listener) process(ev hook.Event) {
	var pressed bool
	switch ev.Kind {
	case hook.KeyDown:
		pressed = true
	case hook.KeyUp:
		pressed = false
	default:
		return
	}

	l.mu.Lock()
	if mod, ok := modifierForCode(ev.Rawcode); ok {
		l.mods[mod] = pressed
	}
	var emits []Edge
	for _, bc := range l.chords {
		switch {
		case pressed && !bc.held:
			if bc.chord.Key.Matches(ev.Rawcode, rune(ev.Keychar)) && l.modsHeldLocked(bc.chord.Mods) {
				bc.held = true
				emits = append(emits, Edge{Chord: bc.id, Pressed: true})
			}
		case !pressed && bc.held:
			if bc.chord.Key.Matches(ev.Rawcode, rune(ev.Keychar)) || bc.chord.usesModifier(ev.Rawcode) {
				bc.held = false
				emits = append(emits, Edge{Chord: bc.id, Pressed: false})
			}
		}
	}
	l.mu.Unlock()

	for _, edge := range emits {
		select {
		case l.edges <- edge:
		default:
			l.logger.Warn("dropping chord edge, consumer too slow",
				slog.String("chord", string(edge.Chord)),
				slog.Bool("pressed", edge.Pressed))
		}
	}
}

func (l *Listener) modsHeldLocked(mods []string) bool {
	for _, mod := range mods {
		if !l.mods[mod] {
			return false
		}
	}
	return true
}

func preflight() error {
	if runtime.GOOS == "linux" {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return &PermissionError{
				Capability: "a display session",
				Hint:       "no DISPLAY or WAYLAND_DISPLAY set; the keyboard hook needs an X11 or Wayland session",
			}
		}
	}
	return nil
}
