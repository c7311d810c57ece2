package hotkey

// The hook reports X11 keysyms in Rawcode on most setups, but some report
// hardware keycodes instead, so the modifier entries carry both.

var modifierCodes = map[string][]uint16{
	"ctrl":  {65507, 65508, 37, 105},
	"shift": {65505, 65506, 50, 62},
	"alt":   {65513, 65514, 64, 108},
	"super": {65515, 65516, 133, 134},
}

var keyCodes = map[string][]uint16{
	"ctrl":       {65507, 65508, 37, 105},
	"leftctrl":   {65507, 37},
	"rightctrl":  {65508, 105},
	"shift":      {65505, 65506, 50, 62},
	"leftshift":  {65505, 50},
	"rightshift": {65506, 62},
	"alt":        {65513, 65514, 64, 108},
	"super":      {65515, 65516, 133, 134},
	"space":      {32},
	"tab":        {65289},
	"enter":      {65293},
	"escape":     {65307},
	"backspace":  {65288},
	"f1":         {65470},
	"f2":         {65471},
	"f3":         {65472},
	"f4":         {65473},
	"f5":         {65474},
	"f6":         {65475},
	"f7":         {65476},
	"f8":         {65477},
	"f9":         {65478},
	"f10":        {65479},
	"f11":        {65480},
	"f12":        {65481},
}
