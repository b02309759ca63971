// Package inject translates resolved logical key sequences into platform
// injection calls, or routes content through the clipboard.
package inject

import "fmt"

// KeyKind enumerates the logical keys the engine can dispatch. Every kind
// must have an entry in keysymNames; TestKeysymMappingIsExhaustive fails
// the build otherwise.
type KeyKind int

const (
	// Modifiers
	KindAlt KeyKind = iota
	KindCapsLock
	KindControl
	KindMeta
	KindNumLock
	KindShift

	// Whitespace and editing
	KindEnter
	KindTab
	KindSpace
	KindBackspace
	KindEscape

	// Navigation
	KindArrowDown
	KindArrowLeft
	KindArrowRight
	KindArrowUp
	KindEnd
	KindHome
	KindPageDown
	KindPageUp

	// Function row
	KindF1
	KindF2
	KindF3
	KindF4
	KindF5
	KindF6
	KindF7
	KindF8
	KindF9
	KindF10
	KindF11
	KindF12
	KindF13
	KindF14
	KindF15
	KindF16
	KindF17
	KindF18
	KindF19
	KindF20

	// KindChar is a printable character carried in Key.Char.
	KindChar
	// KindRaw is the fallback for anything unmapped, carried in Key.Raw.
	KindRaw

	numKeyKinds // keep last
)

// Key is one logical key press.
type Key struct {
	Kind KeyKind
	Char rune   // only for KindChar
	Raw  uint32 // only for KindRaw
}

// CharKey builds a printable-character key.
func CharKey(r rune) Key { return Key{Kind: KindChar, Char: r} }

// RawKey builds a raw-code fallback key.
func RawKey(code uint32) Key { return Key{Kind: KindRaw, Raw: code} }

// keysymNames maps every non-char logical key onto its X keysym name, the
// primitive the command backend speaks. An absent entry is a programming
// defect, not a runtime condition.
var keysymNames = map[KeyKind]string{
	KindAlt:        "Alt_L",
	KindCapsLock:   "Caps_Lock",
	KindControl:    "Control_L",
	KindMeta:       "Super_L",
	KindNumLock:    "Num_Lock",
	KindShift:      "Shift_L",
	KindEnter:      "Return",
	KindTab:        "Tab",
	KindSpace:      "space",
	KindBackspace:  "BackSpace",
	KindEscape:     "Escape",
	KindArrowDown:  "Down",
	KindArrowLeft:  "Left",
	KindArrowRight: "Right",
	KindArrowUp:    "Up",
	KindEnd:        "End",
	KindHome:       "Home",
	KindPageDown:   "Next",
	KindPageUp:     "Prior",
	KindF1:         "F1",
	KindF2:         "F2",
	KindF3:         "F3",
	KindF4:         "F4",
	KindF5:         "F5",
	KindF6:         "F6",
	KindF7:         "F7",
	KindF8:         "F8",
	KindF9:         "F9",
	KindF10:        "F10",
	KindF11:        "F11",
	KindF12:        "F12",
	KindF13:        "F13",
	KindF14:        "F14",
	KindF15:        "F15",
	KindF16:        "F16",
	KindF17:        "F17",
	KindF18:        "F18",
	KindF19:        "F19",
	KindF20:        "F20",
}

// Keysym resolves the platform name for a key.
func (k Key) Keysym() string {
	switch k.Kind {
	case KindChar:
		return string(k.Char)
	case KindRaw:
		return fmt.Sprintf("0x%x", k.Raw)
	default:
		name, ok := keysymNames[k.Kind]
		if !ok {
			// Unreachable when the exhaustiveness test passes.
			panic(fmt.Sprintf("inject: no keysym mapping for key kind %d", k.Kind))
		}
		return name
	}
}

// Backspaces returns a sequence of n backspace presses, used to remove the
// typed trigger before injecting the expansion.
func Backspaces(n int) []Key {
	keys := make([]Key, n)
	for i := range keys {
		keys[i] = Key{Kind: KindBackspace}
	}
	return keys
}
