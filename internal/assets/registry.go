// Package assets manages the whisper model files the local transcription
// backend runs against.
package assets

import "fmt"

const mib = 1 << 20

// Model describes one downloadable recognizer model.
type Model struct {
	Name string
	Size int64
}

// registry mirrors the ggml conversions published for whisper.cpp. Sizes are
// approximate and only used for progress reporting.
var registry = []Model{
	{Name: "tiny", Size: 75 * mib},
	{Name: "tiny.en", Size: 75 * mib},
	{Name: "base", Size: 142 * mib},
	{Name: "base.en", Size: 142 * mib},
	{Name: "small", Size: 466 * mib},
	{Name: "small.en", Size: 466 * mib},
	{Name: "medium", Size: 1500 * mib},
	{Name: "medium.en", Size: 1500 * mib},
	{Name: "large-v1", Size: 2900 * mib},
	{Name: "large-v2", Size: 2900 * mib},
	{Name: "large-v3", Size: 2900 * mib},
}

// Filename returns the on-disk name for the model.
func (m Model) Filename() string {
	return fmt.Sprintf("ggml-%s.bin", m.Name)
}

// Models lists every known model.
func Models() []Model {
	out := make([]Model, len(registry))
	copy(out, registry)
	return out
}

// Names lists the known model names in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, m := range registry {
		names[i] = m.Name
	}
	return names
}

// Lookup finds a model by name.
func Lookup(name string) (Model, bool) {
	for _, m := range registry {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}
