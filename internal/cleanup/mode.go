package cleanup

import "strings"

// Mode selects cleanup aggressiveness, ordered mildest to strongest.
type Mode int

const (
	ModeOff Mode = iota
	ModeLight
	ModeStandard
	ModeAggressive
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeLight:
		return "light"
	case ModeStandard:
		return "standard"
	case ModeAggressive:
		return "aggressive"
	default:
		return "standard"
	}
}

// ParseMode maps a mode string to a Mode. Unrecognized values fall back to
// Standard so a stray config value degrades cleanup instead of disabling it.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return ModeOff
	case "light":
		return ModeLight
	case "standard":
		return ModeStandard
	case "aggressive":
		return ModeAggressive
	default:
		return ModeStandard
	}
}
