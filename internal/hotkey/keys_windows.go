package hotkey

// Rawcodes on Windows are virtual-key codes.

var modifierCodes = map[string][]uint16{
	"ctrl":  {17, 162, 163},
	"shift": {16, 160, 161},
	"alt":   {18, 164, 165},
	"super": {91, 92},
}

var keyCodes = map[string][]uint16{
	"ctrl":       {17, 162, 163},
	"leftctrl":   {17, 162},
	"rightctrl":  {163},
	"shift":      {16, 160, 161},
	"leftshift":  {16, 160},
	"rightshift": {161},
	"alt":        {18, 164, 165},
	"super":      {91, 92},
	"space":      {32},
	"tab":        {9},
	"enter":      {13},
	"escape":     {27},
	"backspace":  {8},
	"f1":         {112},
	"f2":         {113},
	"f3":         {114},
	"f4":         {115},
	"f5":         {116},
	"f6":         {117},
	"f7":         {118},
	"f8":         {119},
	"f9":         {120},
	"f10":        {121},
	"f11":        {122},
	"f12":        {123},
}
