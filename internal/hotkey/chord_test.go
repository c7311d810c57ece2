package hotkey

import (
	"reflect"
	"testing"
)

func TestParseChord(t *testing.T) {
	chord, err := ParseChord("rightctrl")
	if err != nil {
		t.Fatalf("ParseChord failed: %v", err)
	}
	if len(chord.Mods) != 0 {
		t.Fatalf("unexpected modifiers %v", chord.Mods)
	}
	if !reflect.DeepEqual(chord.Key.Codes, keyCodes["rightctrl"]) {
		t.Fatalf("unexpected codes %v", chord.Key.Codes)
	}

	chord, err = ParseChord("Ctrl + Shift + H")
	if err != nil {
		t.Fatalf("ParseChord failed: %v", err)
	}
	if !reflect.DeepEqual(chord.Mods, []string{"ctrl", "shift"}) {
		t.Fatalf("unexpected modifiers %v", chord.Mods)
	}
	if chord.Key.Char != 'h' {
		t.Fatalf("unexpected key char %q", chord.Key.Char)
	}

	chord, err = ParseChord("code:105")
	if err != nil {
		t.Fatalf("ParseChord failed: %v", err)
	}
	if !reflect.DeepEqual(chord.Key.Codes, []uint16{105}) {
		t.Fatalf("unexpected codes %v", chord.Key.Codes)
	}

	chord, err = ParseChord("f8")
	if err != nil {
		t.Fatalf("ParseChord failed: %v", err)
	}
	if !reflect.DeepEqual(chord.Key.Codes, keyCodes["f8"]) {
		t.Fatalf("unexpected codes %v", chord.Key.Codes)
	}

	chord, err = ParseChord("cmd+v")
	if err != nil {
		t.Fatalf("ParseChord failed: %v", err)
	}
	if !reflect.DeepEqual(chord.Mods, []string{"super"}) {
		t.Fatalf("cmd not normalized: %v", chord.Mods)
	}
}

func TestParseChordErrors(t *testing.T) {
	for _, spec := range []string{"", "   ", "bogus+h", "notakey", "code:xyz", "ctrl+"} {
		if _, err := ParseChord(spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}

func TestKeyMatches(t *testing.T) {
	key := Key{Name: "rightctrl", Codes: keyCodes["rightctrl"]}
	if !key.Matches(keyCodes["rightctrl"][0], 0) {
		t.Fatalf("rawcode match failed")
	}
	if key.Matches(12345, 0) {
		t.Fatalf("unexpected rawcode match")
	}

	letter := Key{Name: "h", Char: 'h'}
	if !letter.Matches(0, 'h') {
		t.Fatalf("char match failed")
	}
	if !letter.Matches(0, 'H') {
		t.Fatalf("uppercase char match failed")
	}
	if letter.Matches(0, 'j') {
		t.Fatalf("unexpected char match")
	}
}
