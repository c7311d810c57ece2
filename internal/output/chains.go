package output

import (
	"fmt"
	"strings"
	"time"
)

// toolCall is one step of an injection chain. An empty argv marks the
// synthetic keystroke fallback driven through the uinput layer instead
// of an external binary.
type toolCall struct {
	tool    string
	argv    []string
	stdin   string
	timeout time.Duration
}

// pasteChain lists the paste keystrokes to try, most specific first.
// Wayland compositors ignore XTEST, so wtype leads there; xdotool still
// follows for XWayland windows. The synthetic fallback closes the chain
// on Linux and is the only entry on Windows.
func (i *Injector) pasteChain() []toolCall {
	switch i.goos {
	case "linux":
		var chain []toolCall
		if i.tools.Display == DisplayWayland && i.tools.Has("wtype") {
			chain = append(chain, toolCall{
				tool:    "wtype",
				argv:    []string{"wtype", "-M", "ctrl", "-P", "v", "-p", "v", "-m", "ctrl"},
				timeout: i.toolTimeout(),
			})
		}
		if i.tools.Has("xdotool") {
			chain = append(chain, toolCall{
				tool:    "xdotool",
				argv:    []string{"xdotool", "key", "--clearmodifiers", "ctrl+v"},
				timeout: i.toolTimeout(),
			})
		}
		chain = append(chain, toolCall{tool: "keystroke"})
		return chain
	case "darwin":
		return []toolCall{{
			tool:    "osascript",
			argv:    []string{"osascript", "-e", `tell application "System Events" to keystroke "v" using command down`},
			timeout: i.toolTimeout(),
		}}
	case "windows":
		return []toolCall{{tool: "keystroke"}}
	default:
		return nil
	}
}

// typeChain lists the tools that can type the text directly. Windows
// has none, which typeText resolves by pasting instead.
func (i *Injector) typeChain(text string) []toolCall {
	switch i.goos {
	case "linux":
		var chain []toolCall
		if i.tools.Display == DisplayWayland && i.tools.Has("wtype") {
			argv := []string{"wtype"}
			if i.cfg.TypeDelayMS > 0 {
				argv = append(argv, "-d", fmt.Sprintf("%d", i.cfg.TypeDelayMS))
			}
			argv = append(argv, text)
			chain = append(chain, toolCall{tool: "wtype", argv: argv, timeout: i.typeTimeout()})
		}
		if i.tools.Display != DisplayWayland && i.tools.Has("xdotool") {
			argv := []string{"xdotool", "type", "--clearmodifiers"}
			if i.cfg.TypeDelayMS > 0 {
				argv = append(argv, "--delay", fmt.Sprintf("%d", i.cfg.TypeDelayMS))
			}
			argv = append(argv, "--", text)
			chain = append(chain, toolCall{tool: "xdotool", argv: argv, timeout: i.typeTimeout()})
		}
		return chain
	case "darwin":
		script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escapeAppleScript(text))
		return []toolCall{{
			tool:    "osascript",
			argv:    []string{"osascript", "-e", script},
			timeout: i.typeTimeout(),
		}}
	default:
		return nil
	}
}

// escapeAppleScript quotes text for embedding in an AppleScript string
// literal. Backslashes first, then quotes.
func escapeAppleScript(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(text, `"`, `\"`)
}
