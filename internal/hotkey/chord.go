// Package hotkey watches the global keyboard for the push-to-talk gesture
// without consuming any events.
package hotkey

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Chord is a parsed gesture: zero or more modifiers plus one terminal key.
type Chord struct {
	Raw  string
	Mods []string
	Key  Key
}

// Key identifies the terminal key of a chord either by platform rawcode or,
// for plain letters and digits, by the character the hook reports.
type Key struct {
	Name  string
	Char  rune
	Codes []uint16
}

// ParseChord reads a config gesture such as "rightctrl", "ctrl+shift+h",
// "f8" or "code:105". Key names resolve against the table for the platform
// the binary was built for.
func ParseChord(spec string) (Chord, error) {
	raw := strings.ToLower(strings.TrimSpace(spec))
	if raw == "" {
		return Chord{}, fmt.Errorf("empty chord")
	}

	parts := strings.Split(raw, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var mods []string
	for _, part := range parts[:len(parts)-1] {
		mod, ok := normalizeModifier(part)
		if !ok {
			return Chord{}, fmt.Errorf("unknown modifier %q in chord %q", part, spec)
		}
		mods = append(mods, mod)
	}

	key, err := parseKey(parts[len(parts)-1], spec)
	if err != nil {
		return Chord{}, err
	}
	return Chord{Raw: raw, Mods: mods, Key: key}, nil
}

func normalizeModifier(name string) (string, bool) {
	switch name {
	case "ctrl", "control":
		return "ctrl", true
	case "shift":
		return "shift", true
	case "alt", "option", "opt":
		return "alt", true
	case "super", "cmd", "win", "meta":
		return "super", true
	}
	return "", false
}

func parseKey(name, spec string) (Key, error) {
	if rest, ok := strings.CutPrefix(name, "code:"); ok {
		code, err := strconv.ParseUint(rest, 10, 16)
		if err != nil {
			return Key{}, fmt.Errorf("bad keycode in chord %q: %w", spec, err)
		}
		return Key{Name: name, Codes: []uint16{uint16(code)}}, nil
	}
	if codes, ok := keyCodes[name]; ok {
		return Key{Name: name, Codes: codes}, nil
	}
	runes := []rune(name)
	if len(runes) == 1 && (unicode.IsLetter(runes[0]) || unicode.IsDigit(runes[0])) {
		return Key{Name: name, Char: runes[0]}, nil
	}
	return Key{}, fmt.Errorf("unknown key %q in chord %q", name, spec)
}

// Matches reports whether a hook event hits this key.
func (k Key) Matches(rawcode uint16, keychar rune) bool {
	for _, code := range k.Codes {
		if code == rawcode {
			return true
		}
	}
	return k.Char != 0 && unicode.ToLower(keychar) == k.Char
}

// usesModifier reports whether the rawcode belongs to one of the chord's
// required modifier groups.
func (c Chord) usesModifier(rawcode uint16) bool {
	for _, mod := range c.Mods {
		for _, code := range modifierCodes[mod] {
			if code == rawcode {
				return true
			}
		}
	}
	return false
}

func modifierForCode(rawcode uint16) (string, bool) {
	for mod, codes := range modifierCodes {
		for _, code := range codes {
			if code == rawcode {
				return mod, true
			}
		}
	}
	return "", false
}
