// Package input bridges native keyboard and mouse callbacks into bounded
// batches that a frame loop polls once per frame.
package input

import (
	"time"

	"nativebridge/internal/native"
)

// Modifiers is the bitmask of modifier keys held when an event was produced.
type Modifiers = native.Modifiers

const (
	ModShift = native.ModShift
	ModCtrl  = native.ModCtrl
	ModAlt   = native.ModAlt
	ModSuper = native.ModSuper
)

// KeyEventType distinguishes presses from releases.
type KeyEventType uint8

const (
	KeyPress KeyEventType = iota
	KeyRelease
)

func (t KeyEventType) String() string {
	if t == KeyPress {
		return "press"
	}
	return "release"
}

// KeyEvent is one keyboard occurrence.
type KeyEvent struct {
	Type      KeyEventType  `json:"type"`
	Timestamp time.Duration `json:"ts"`
	Code      uint8         `json:"code"`
	Modifiers Modifiers     `json:"modifiers,omitempty"`
	// Repeat is set on presses generated by key auto-repeat.
	Repeat bool `json:"repeat,omitempty"`
}

// MouseEventType is the kind of a mouse occurrence.
type MouseEventType uint8

const (
	ButtonPress MouseEventType = iota
	ButtonRelease
	Move
	Scroll
	EnterWindow
	ExitWindow
)

func (t MouseEventType) String() string {
	switch t {
	case ButtonPress:
		return "button_press"
	case ButtonRelease:
		return "button_release"
	case Move:
		return "move"
	case Scroll:
		return "scroll"
	case EnterWindow:
		return "enter_window"
	case ExitWindow:
		return "exit_window"
	}
	return "unknown"
}

// Button identifies a mouse button.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonExtra1
	ButtonExtra2
	ButtonNone
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonExtra1:
		return "extra1"
	case ButtonExtra2:
		return "extra2"
	}
	return "none"
}

func buttonFromNative(b native.Button) Button {
	switch b {
	case native.ButtonLeft:
		return ButtonLeft
	case native.ButtonRight:
		return ButtonRight
	case native.ButtonMiddle:
		return ButtonMiddle
	case native.ButtonExtra1:
		return ButtonExtra1
	case native.ButtonExtra2:
		return ButtonExtra2
	}
	return ButtonNone
}

// MouseEvent is one mouse occurrence.
type MouseEvent struct {
	Type      MouseEventType `json:"type"`
	Timestamp time.Duration  `json:"ts"`

	// Window-local pixels
	WindowX float32 `json:"wx"`
	WindowY float32 `json:"wy"`
	// Transformed with the viewport in effect when the event was produced
	GameX float32 `json:"gx"`
	GameY float32 `json:"gy"`

	// Movement since the previous event, zero unless Type is Move
	DeltaX float32 `json:"dx,omitempty"`
	DeltaY float32 `json:"dy,omitempty"`

	// Non-zero only for Scroll
	ScrollDeltaX float32 `json:"sx,omitempty"`
	ScrollDeltaY float32 `json:"sy,omitempty"`

	Button    Button    `json:"btn"`
	IsPressed bool      `json:"pressed,omitempty"`
	Modifiers Modifiers `json:"modifiers,omitempty"`
}

// State is the lifecycle state of a capture session.
type State uint8

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}
