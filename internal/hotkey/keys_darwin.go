package hotkey

// Rawcodes on macOS are Carbon virtual keycodes.

var modifierCodes = map[string][]uint16{
	"ctrl":  {59, 62},
	"shift": {56, 60},
	"alt":   {58, 61},
	"super": {55, 54},
}

var keyCodes = map[string][]uint16{
	"ctrl":       {59, 62},
	"leftctrl":   {59},
	"rightctrl":  {62},
	"shift":      {56, 60},
	"leftshift":  {56},
	"rightshift": {60},
	"alt":        {58, 61},
	"super":      {55, 54},
	// The globe key on Apple keyboards, the original push-to-talk default.
	"fn":        {63},
	"space":     {49},
	"tab":       {48},
	"enter":     {36},
	"escape":    {53},
	"backspace": {51},
	"f1":        {122},
	"f2":        {120},
	"f3":        {99},
	"f4":        {118},
	"f5":        {96},
	"f6":        {97},
	"f7":        {98},
	"f8":        {100},
	"f9":        {101},
	"f10":       {109},
	"f11":       {103},
	"f12":       {111},
}
