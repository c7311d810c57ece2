package output

import (
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
)

// pressPaste replays the platform paste chord through a synthetic
// keyboard device. Linux needs a pause after creating the uinput device
// before it accepts events.
func pressPaste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)
	return kb.Launching()
}
