package hotkey

import "fmt"

// PermissionError reports that the global keyboard hook cannot run in this
// environment. It is fatal at startup; the daemon has nothing to do without
// the hook.
type PermissionError struct {
	Capability string
	Hint       string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("keyboard hook requires %s: %s", e.Capability, e.Hint)
}
