package native

// Key codes use the macOS virtual key numbering on every toolkit so that a
// code means the same physical key regardless of backend.
// Reference: https://developer.apple.com/documentation/coregraphics/cgkeycode
const (
	KeyA            uint8 = 0x00
	KeyS            uint8 = 0x01
	KeyD            uint8 = 0x02
	KeyF            uint8 = 0x03
	KeyH            uint8 = 0x04
	KeyG            uint8 = 0x05
	KeyZ            uint8 = 0x06
	KeyX            uint8 = 0x07
	KeyC            uint8 = 0x08
	KeyV            uint8 = 0x09
	KeyB            uint8 = 0x0B
	KeyQ            uint8 = 0x0C
	KeyW            uint8 = 0x0D
	KeyE            uint8 = 0x0E
	KeyR            uint8 = 0x0F
	KeyY            uint8 = 0x10
	KeyT            uint8 = 0x11
	Key1            uint8 = 0x12
	Key2            uint8 = 0x13
	Key3            uint8 = 0x14
	Key4            uint8 = 0x15
	Key6            uint8 = 0x16
	Key5            uint8 = 0x17
	KeyEqual        uint8 = 0x18
	Key9            uint8 = 0x19
	Key7            uint8 = 0x1A
	KeyMinus        uint8 = 0x1B
	Key8            uint8 = 0x1C
	Key0            uint8 = 0x1D
	KeyRightBracket uint8 = 0x1E
	KeyO            uint8 = 0x1F
	KeyU            uint8 = 0x20
	KeyLeftBracket  uint8 = 0x21
	KeyI            uint8 = 0x22
	KeyP            uint8 = 0x23
	KeyReturn       uint8 = 0x24
	KeyL            uint8 = 0x25
	KeyJ            uint8 = 0x26
	KeyQuote        uint8 = 0x27
	KeyK            uint8 = 0x28
	KeySemicolon    uint8 = 0x29
	KeyBackslash    uint8 = 0x2A
	KeyComma        uint8 = 0x2B
	KeySlash        uint8 = 0x2C
	KeyN            uint8 = 0x2D
	KeyM            uint8 = 0x2E
	KeyPeriod       uint8 = 0x2F
	KeyTab          uint8 = 0x30
	KeySpace        uint8 = 0x31
	KeyGrave        uint8 = 0x32
	KeyDelete       uint8 = 0x33
	KeyEscape       uint8 = 0x35
	KeyRightCommand uint8 = 0x36
	KeyCommand      uint8 = 0x37
	KeyShift        uint8 = 0x38
	KeyCapsLock     uint8 = 0x39
	KeyOption       uint8 = 0x3A
	KeyControl      uint8 = 0x3B
	KeyRightShift   uint8 = 0x3C
	KeyRightOption  uint8 = 0x3D
	KeyRightControl uint8 = 0x3E
	KeyF5           uint8 = 0x60
	KeyF6           uint8 = 0x61
	KeyF7           uint8 = 0x62
	KeyF3           uint8 = 0x63
	KeyF8           uint8 = 0x64
	KeyF9           uint8 = 0x65
	KeyF11          uint8 = 0x67
	KeyF10          uint8 = 0x6D
	KeyF12          uint8 = 0x6F
	KeyHelp         uint8 = 0x72
	KeyHome         uint8 = 0x73
	KeyPageUp       uint8 = 0x74
	KeyForwardDel   uint8 = 0x75
	KeyF4           uint8 = 0x76
	KeyEnd          uint8 = 0x77
	KeyF2           uint8 = 0x78
	KeyPageDown     uint8 = 0x79
	KeyF1           uint8 = 0x7A
	KeyArrowLeft    uint8 = 0x7B
	KeyArrowRight   uint8 = 0x7C
	KeyArrowDown    uint8 = 0x7D
	KeyArrowUp      uint8 = 0x7E
)

// windowsVKToKey maps Windows virtual-key codes to key codes.
// Reference: https://docs.microsoft.com/en-us/windows/win32/inputdev/virtual-key-codes
var windowsVKToKey = map[uint16]uint8{
	0x41: KeyA, 0x42: KeyB, 0x43: KeyC, 0x44: KeyD, 0x45: KeyE, 0x46: KeyF,
	0x47: KeyG, 0x48: KeyH, 0x49: KeyI, 0x4A: KeyJ, 0x4B: KeyK, 0x4C: KeyL,
	0x4D: KeyM, 0x4E: KeyN, 0x4F: KeyO, 0x50: KeyP, 0x51: KeyQ, 0x52: KeyR,
	0x53: KeyS, 0x54: KeyT, 0x55: KeyU, 0x56: KeyV, 0x57: KeyW, 0x58: KeyX,
	0x59: KeyY, 0x5A: KeyZ,

	0x30: Key0, 0x31: Key1, 0x32: Key2, 0x33: Key3, 0x34: Key4,
	0x35: Key5, 0x36: Key6, 0x37: Key7, 0x38: Key8, 0x39: Key9,

	0x70: KeyF1, 0x71: KeyF2, 0x72: KeyF3, 0x73: KeyF4, 0x74: KeyF5, 0x75: KeyF6,
	0x76: KeyF7, 0x77: KeyF8, 0x78: KeyF9, 0x79: KeyF10, 0x7A: KeyF11, 0x7B: KeyF12,

	0x08: KeyDelete, // Backspace
	0x09: KeyTab,
	0x0D: KeyReturn,
	0x10: KeyShift,
	0x11: KeyControl,
	0x12: KeyOption,
	0x14: KeyCapsLock,
	0x1B: KeyEscape,
	0x20: KeySpace,

	0x25: KeyArrowLeft,
	0x26: KeyArrowUp,
	0x27: KeyArrowRight,
	0x28: KeyArrowDown,

	0x21: KeyPageUp,
	0x22: KeyPageDown,
	0x23: KeyEnd,
	0x24: KeyHome,
	0x2D: KeyHelp,       // Insert
	0x2E: KeyForwardDel, // Delete

	0x5B: KeyCommand, // Left Windows
	0x5C: KeyRightCommand,
	0xA0: KeyShift,
	0xA1: KeyRightShift,
	0xA2: KeyControl,
	0xA3: KeyRightControl,
	0xA4: KeyOption,
	0xA5: KeyRightOption,

	0xBA: KeySemicolon,
	0xBB: KeyEqual,
	0xBC: KeyComma,
	0xBD: KeyMinus,
	0xBE: KeyPeriod,
	0xBF: KeySlash,
	0xC0: KeyGrave,
	0xDB: KeyLeftBracket,
	0xDC: KeyBackslash,
	0xDD: KeyRightBracket,
	0xDE: KeyQuote,
}

// KeyFromWindowsVK converts a Windows virtual-key code.
func KeyFromWindowsVK(vk uint16) (uint8, bool) {
	code, ok := windowsVKToKey[vk]
	return code, ok
}

var runeToKey = map[rune]uint8{
	'a': KeyA, 'b': KeyB, 'c': KeyC, 'd': KeyD, 'e': KeyE, 'f': KeyF, 'g': KeyG,
	'h': KeyH, 'i': KeyI, 'j': KeyJ, 'k': KeyK, 'l': KeyL, 'm': KeyM, 'n': KeyN,
	'o': KeyO, 'p': KeyP, 'q': KeyQ, 'r': KeyR, 's': KeyS, 't': KeyT, 'u': KeyU,
	'v': KeyV, 'w': KeyW, 'x': KeyX, 'y': KeyY, 'z': KeyZ,
	'0': Key0, '1': Key1, '2': Key2, '3': Key3, '4': Key4,
	'5': Key5, '6': Key6, '7': Key7, '8': Key8, '9': Key9,
	' ': KeySpace, '-': KeyMinus, '=': KeyEqual, '[': KeyLeftBracket,
	']': KeyRightBracket, '\\': KeyBackslash, ';': KeySemicolon, '\'': KeyQuote,
	',': KeyComma, '.': KeyPeriod, '/': KeySlash, '`': KeyGrave,
}

// shiftedRunes maps characters typed with Shift on a US layout to their base key.
var shiftedRunes = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5', '^': '6', '&': '7', '*': '8',
	'(': '9', ')': '0', '_': '-', '+': '=', '{': '[', '}': ']', '|': '\\',
	':': ';', '"': '\'', '<': ',', '>': '.', '?': '/', '~': '`',
}

// KeyFromRune converts a typed character into a key code, reporting whether
// Shift was needed to produce it.
func KeyFromRune(r rune) (code uint8, shift bool, ok bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
		shift = true
	} else if base, found := shiftedRunes[r]; found {
		r = base
		shift = true
	}
	code, ok = runeToKey[r]
	return code, shift, ok
}

// KeyName returns a short display name for a key code, or "" if unknown.
func KeyName(code uint8) string {
	switch code {
	case KeyCommand, KeyRightCommand:
		return "CMD"
	case KeyShift, KeyRightShift:
		return "SHIFT"
	case KeyOption, KeyRightOption:
		return "ALT"
	case KeyControl, KeyRightControl:
		return "CTRL"
	case KeySpace:
		return "SPACE"
	case KeyReturn:
		return "ENTER"
	case KeyEscape:
		return "ESC"
	case KeyTab:
		return "TAB"
	case KeyDelete:
		return "BACKSPACE"
	case KeyArrowLeft:
		return "LEFT"
	case KeyArrowRight:
		return "RIGHT"
	case KeyArrowUp:
		return "UP"
	case KeyArrowDown:
		return "DOWN"
	case KeyF1:
		return "F1"
	case KeyF2:
		return "F2"
	case KeyF3:
		return "F3"
	case KeyF4:
		return "F4"
	case KeyF5:
		return "F5"
	case KeyF6:
		return "F6"
	case KeyF7:
		return "F7"
	case KeyF8:
		return "F8"
	case KeyF9:
		return "F9"
	case KeyF10:
		return "F10"
	case KeyF11:
		return "F11"
	case KeyF12:
		return "F12"
	}
	for r, c := range runeToKey {
		if c == code && r != ' ' {
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			return string(r)
		}
	}
	return ""
}
