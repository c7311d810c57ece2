package output

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/handfreelabs/handfree/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func outputTestConfig() config.OutputConfig {
	return config.OutputConfig{
		PasteSettleMS:  50,
		RestoreDelayMS: 120,
		ToolTimeoutS:   5,
		TypeTimeoutS:   30,
	}
}

// fakeEnv replaces every side effect of the injector with recorders.
type fakeEnv struct {
	inj *Injector

	runs     [][]string
	timeouts []time.Duration
	runErr   map[string]error

	clip       string
	clipWrites []string
	readErr    error
	writeErr   error

	pressed  int
	pressErr error

	sleeps []time.Duration
}

func newFakeEnv(t *testing.T, cfg config.OutputConfig, tools Tools, goos string) *fakeEnv {
	t.Helper()
	env := &fakeEnv{runErr: make(map[string]error)}
	inj := NewInjector(cfg, tools, testLogger())
	inj.goos = goos
	inj.run = func(ctx context.Context, timeout time.Duration, argv []string, stdin string) error {
		env.runs = append(env.runs, argv)
		env.timeouts = append(env.timeouts, timeout)
		return env.runErr[argv[0]]
	}
	inj.readClip = func() (string, error) {
		if env.readErr != nil {
			return "", env.readErr
		}
		return env.clip, nil
	}
	inj.writeClip = func(text string) error {
		if env.writeErr != nil {
			return env.writeErr
		}
		env.clipWrites = append(env.clipWrites, text)
		env.clip = text
		return nil
	}
	inj.pressPaste = func() error {
		env.pressed++
		return env.pressErr
	}
	inj.sleep = func(d time.Duration) {
		env.sleeps = append(env.sleeps, d)
	}
	env.inj = inj
	return env
}

func TestOutputEmptyTextIsNoop(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayWayland, "wtype"), "linux")

	if err := env.inj.Output(context.Background(), ""); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if len(env.runs) != 0 || len(env.clipWrites) != 0 || env.pressed != 0 {
		t.Fatalf("empty text touched the environment: runs=%v writes=%v pressed=%d", env.runs, env.clipWrites, env.pressed)
	}
}

func TestPasteWaylandUsesWtype(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayWayland, "wtype", "xdotool"), "linux")
	env.clip = "before"

	if err := env.inj.Output(context.Background(), "hello"); err != nil {
		t.Fatalf("Output: %v", err)
	}
	wantArgv := []string{"wtype", "-M", "ctrl", "-P", "v", "-p", "v", "-m", "ctrl"}
	if len(env.runs) != 1 || !reflect.DeepEqual(env.runs[0], wantArgv) {
		t.Fatalf("runs = %v, want [%v]", env.runs, wantArgv)
	}
	if env.timeouts[0] != 5*time.Second {
		t.Fatalf("paste timeout = %v, want 5s", env.timeouts[0])
	}
	if want := []string{"hello", "before"}; !reflect.DeepEqual(env.clipWrites, want) {
		t.Fatalf("clipboard writes = %v, want %v", env.clipWrites, want)
	}
	if want := []time.Duration{50 * time.Millisecond, 120 * time.Millisecond}; !reflect.DeepEqual(env.sleeps, want) {
		t.Fatalf("sleeps = %v, want %v", env.sleeps, want)
	}
}

func TestPasteX11FallsBackToKeystroke(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayX11, "xclip", "xdotool"), "linux")
	env.runErr["xdotool"] = errors.New("no XTEST extension")

	if err := env.inj.Output(context.Background(), "hello"); err != nil {
		t.Fatalf("Output: %v", err)
	}
	wantArgv := []string{"xdotool", "key", "--clearmodifiers", "ctrl+v"}
	if len(env.runs) != 1 || !reflect.DeepEqual(env.runs[0], wantArgv) {
		t.Fatalf("runs = %v, want [%v]", env.runs, wantArgv)
	}
	if env.pressed != 1 {
		t.Fatalf("pressed = %d, want 1", env.pressed)
	}
}

func TestPasteAllToolsFail(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayWayland, "wtype", "xdotool"), "linux")
	env.clip = "before"
	env.runErr["wtype"] = errors.New("wtype: compositor refused")
	env.runErr["xdotool"] = errors.New("xdotool: no display")
	env.pressErr = errors.New("uinput: permission denied")

	err := env.inj.Output(context.Background(), "hello")
	var outErr *Error
	if !errors.As(err, &outErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if want := []string{"wtype", "xdotool", "keystroke"}; !reflect.DeepEqual(outErr.Tried, want) {
		t.Fatalf("Tried = %v, want %v", outErr.Tried, want)
	}
	// The text stays on the clipboard as the manual recovery path only
	// until the deferred restore runs; the snapshot always wins.
	if want := []string{"hello", "before"}; !reflect.DeepEqual(env.clipWrites, want) {
		t.Fatalf("clipboard writes = %v, want %v", env.clipWrites, want)
	}
}

func TestPasteWithoutSnapshotSkipsRestore(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayWayland, "wtype"), "linux")
	env.readErr = errors.New("clipboard holds an image")

	if err := env.inj.Output(context.Background(), "hello"); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if want := []string{"hello"}; !reflect.DeepEqual(env.clipWrites, want) {
		t.Fatalf("clipboard writes = %v, want %v", env.clipWrites, want)
	}
	if want := []time.Duration{50 * time.Millisecond}; !reflect.DeepEqual(env.sleeps, want) {
		t.Fatalf("sleeps = %v, want %v", env.sleeps, want)
	}
}

func TestPasteClipboardWriteFailure(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayWayland, "wtype"), "linux")
	env.writeErr = errors.New("wl-copy missing")

	err := env.inj.Output(context.Background(), "hello")
	var outErr *Error
	if !errors.As(err, &outErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if len(outErr.Tried) != 0 {
		t.Fatalf("Tried = %v, want none", outErr.Tried)
	}
	if len(env.runs) != 0 || env.pressed != 0 {
		t.Fatalf("tools ran despite clipboard failure: runs=%v pressed=%d", env.runs, env.pressed)
	}
}

func TestPasteCanceledContext(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayWayland, "wtype"), "linux")
	env.clip = "before"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := env.inj.Output(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(env.runs) != 0 {
		t.Fatalf("tools ran after cancellation: %v", env.runs)
	}
	if want := []string{"hello", "before"}; !reflect.DeepEqual(env.clipWrites, want) {
		t.Fatalf("clipboard writes = %v, want %v", env.clipWrites, want)
	}
}

func TestSkipClipboardTypesWaylandWithDelay(t *testing.T) {
	cfg := outputTestConfig()
	cfg.SkipClipboard = true
	cfg.TypeDelayMS = 15
	env := newFakeEnv(t, cfg, NewTools(DisplayWayland, "wtype"), "linux")

	if err := env.inj.Output(context.Background(), "hi there"); err != nil {
		t.Fatalf("Output: %v", err)
	}
	wantArgv := []string{"wtype", "-d", "15", "hi there"}
	if len(env.runs) != 1 || !reflect.DeepEqual(env.runs[0], wantArgv) {
		t.Fatalf("runs = %v, want [%v]", env.runs, wantArgv)
	}
	if env.timeouts[0] != 30*time.Second {
		t.Fatalf("type timeout = %v, want 30s", env.timeouts[0])
	}
	if len(env.clipWrites) != 0 || env.pressed != 0 {
		t.Fatalf("clipboard-free mode touched the clipboard: writes=%v pressed=%d", env.clipWrites, env.pressed)
	}
}

func TestSkipClipboardTypesX11(t *testing.T) {
	cfg := outputTestConfig()
	cfg.SkipClipboard = true
	env := newFakeEnv(t, cfg, NewTools(DisplayX11, "xdotool"), "linux")

	if err := env.inj.Output(context.Background(), "hi"); err != nil {
		t.Fatalf("Output: %v", err)
	}
	wantArgv := []string{"xdotool", "type", "--clearmodifiers", "--", "hi"}
	if len(env.runs) != 1 || !reflect.DeepEqual(env.runs[0], wantArgv) {
		t.Fatalf("runs = %v, want [%v]", env.runs, wantArgv)
	}
	if len(env.clipWrites) != 0 {
		t.Fatalf("clipboard-free mode wrote the clipboard: %v", env.clipWrites)
	}
}

func TestSkipClipboardWithoutToolFails(t *testing.T) {
	cfg := outputTestConfig()
	cfg.SkipClipboard = true
	env := newFakeEnv(t, cfg, NewTools(DisplayWayland), "linux")

	err := env.inj.Output(context.Background(), "hi")
	var outErr *Error
	if !errors.As(err, &outErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if len(env.clipWrites) != 0 || env.pressed != 0 {
		t.Fatalf("failed typing touched the environment: writes=%v pressed=%d", env.clipWrites, env.pressed)
	}
}

func TestSkipClipboardWindowsFallsBackToPaste(t *testing.T) {
	cfg := outputTestConfig()
	cfg.SkipClipboard = true
	env := newFakeEnv(t, cfg, NewTools(DisplayUnknown), "windows")
	env.clip = "before"

	if err := env.inj.Output(context.Background(), "hi"); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if env.pressed != 1 {
		t.Fatalf("pressed = %d, want 1", env.pressed)
	}
	if want := []string{"hi", "before"}; !reflect.DeepEqual(env.clipWrites, want) {
		t.Fatalf("clipboard writes = %v, want %v", env.clipWrites, want)
	}
}

func TestDarwinPasteUsesOsascript(t *testing.T) {
	env := newFakeEnv(t, outputTestConfig(), NewTools(DisplayUnknown, "osascript"), "darwin")

	if err := env.inj.Output(context.Background(), "hello"); err != nil {
		t.Fatalf("Output: %v", err)
	}
	wantArgv := []string{"osascript", "-e", `tell application "System Events" to keystroke "v" using command down`}
	if len(env.runs) != 1 || !reflect.DeepEqual(env.runs[0], wantArgv) {
		t.Fatalf("runs = %v, want [%v]", env.runs, wantArgv)
	}
}

func TestDarwinTypeEscapesText(t *testing.T) {
	cfg := outputTestConfig()
	cfg.SkipClipboard = true
	env := newFakeEnv(t, cfg, NewTools(DisplayUnknown, "osascript"), "darwin")

	if err := env.inj.Output(context.Background(), `say "hi" \ bye`); err != nil {
		t.Fatalf("Output: %v", err)
	}
	wantScript := `tell application "System Events" to keystroke "say \"hi\" \\ bye"`
	if len(env.runs) != 1 || env.runs[0][2] != wantScript {
		t.Fatalf("script = %q, want %q", env.runs[0][2], wantScript)
	}
}

func TestToolsHas(t *testing.T) {
	tools := NewTools(DisplayWayland, "wtype", "wl-copy")
	if !tools.Has("wtype") || !tools.Has("wl-copy") {
		t.Fatalf("probed tools missing: %+v", tools)
	}
	if tools.Has("xdotool") {
		t.Fatalf("unprobed tool reported present")
	}
}

func TestDetectDisplayServer(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("display detection is linux-only")
	}
	cases := []struct {
		name        string
		sessionType string
		wayland     string
		display     string
		want        DisplayServer
	}{
		{"session type wayland", "wayland", "", "", DisplayWayland},
		{"session type x11", "x11", "", ":0", DisplayX11},
		{"fallback wayland display", "", "wayland-0", ":0", DisplayWayland},
		{"fallback x display", "", "", ":0", DisplayX11},
		{"headless", "", "", "", DisplayUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tc.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tc.wayland)
			t.Setenv("DISPLAY", tc.display)
			if got := detectDisplayServer(); got != tc.want {
				t.Fatalf("detectDisplayServer() = %q, want %q", got, tc.want)
			}
		})
	}
}
