package output

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// DisplayServer identifies the Linux session type. Empty on other
// platforms and on headless sessions.
type DisplayServer string

const (
	DisplayWayland DisplayServer = "wayland"
	DisplayX11     DisplayServer = "x11"
	DisplayUnknown DisplayServer = ""
)

// Tools records which injection binaries are on PATH and what kind of
// display session is running. Probed once at startup, then immutable.
type Tools struct {
	Display DisplayServer
	have    map[string]bool
}

// ToolStatus is one probe result, used by the doctor output.
type ToolStatus struct {
	Name    string
	Present bool
}

// DetectTools probes PATH for the platform's injection binaries.
func DetectTools() Tools {
	t := Tools{Display: detectDisplayServer(), have: make(map[string]bool)}
	for _, name := range probeList() {
		if _, err := exec.LookPath(name); err == nil {
			t.have[name] = true
		}
	}
	return t
}

// NewTools builds a Tools value by hand, mainly for tests and for
// environments probed elsewhere.
func NewTools(display DisplayServer, names ...string) Tools {
	t := Tools{Display: display, have: make(map[string]bool)}
	for _, name := range names {
		t.have[name] = true
	}
	return t
}

func (t Tools) Has(name string) bool { return t.have[name] }

// List reports the probe results in the platform's probe order.
func (t Tools) List() []ToolStatus {
	names := probeList()
	out := make([]ToolStatus, 0, len(names))
	for _, name := range names {
		out = append(out, ToolStatus{Name: name, Present: t.have[name]})
	}
	return out
}

func probeList() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{"wl-copy", "wl-paste", "wtype", "xclip", "xsel", "xdotool"}
	case "darwin":
		return []string{"osascript"}
	default:
		return nil
	}
}

// detectDisplayServer trusts XDG_SESSION_TYPE when set and falls back
// to the display environment variables, which is what login managers
// leave behind when the session type is unset.
func detectDisplayServer() DisplayServer {
	if runtime.GOOS != "linux" {
		return DisplayUnknown
	}
	switch strings.ToLower(os.Getenv("XDG_SESSION_TYPE")) {
	case "wayland":
		return DisplayWayland
	case "x11":
		return DisplayX11
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayWayland
	}
	if os.Getenv("DISPLAY") != "" {
		return DisplayX11
	}
	return DisplayUnknown
}
