package input

import (
	"sync/atomic"

	"nativebridge/internal/native"
)

// keyTable is the live pressed state of all 256 key codes.
type keyTable [4]atomic.Uint64

func (t *keyTable) set(code uint8, down bool) {
	word, bit := &t[code>>6], uint64(1)<<(code&63)
	for {
		old := word.Load()
		next := old &^ bit
		if down {
			next = old | bit
		}
		if old == next || word.CompareAndSwap(old, next) {
			return
		}
	}
}

func (t *keyTable) has(code uint8) bool {
	return t[code>>6].Load()&(uint64(1)<<(code&63)) != 0
}

func (t *keyTable) reset() {
	for i := range t {
		t[i].Store(0)
	}
}

// Keyboard captures key presses and releases from a toolkit.
//
// Start, Stop and the toolkit callbacks belong to the UI thread. Poll,
// IsKeyPressed and PressedKeys may be called from any goroutine.
type Keyboard struct {
	s       session[KeyEvent]
	pressed keyTable
}

// NewKeyboard creates a stopped keyboard session on tk.
func NewKeyboard(tk native.Toolkit) *Keyboard {
	return &Keyboard{
		s: session[KeyEvent]{name: "keyboard", tk: tk, mask: native.KeyboardEvents},
	}
}

// Start installs the keyboard monitor. Starting a running session does nothing.
func (k *Keyboard) Start() error {
	return k.s.start(k.handle)
}

// Stop removes the monitor, discards pending events and forgets pressed keys.
// Stopping a stopped session does nothing.
func (k *Keyboard) Stop() {
	if k.s.stop() {
		k.pressed.reset()
	}
}

// Poll moves the events gathered since the previous poll into out. It
// returns false and leaves out untouched when the session is not running.
func (k *Keyboard) Poll(out *KeyBatch) bool {
	return k.s.poll(out)
}

// State returns the session state
func (k *Keyboard) State() State {
	return k.s.state()
}

// IsKeyPressed reports whether the last event seen for code was a press.
func (k *Keyboard) IsKeyPressed(code uint8) bool {
	return k.pressed.has(code)
}

// PressedKeys returns the codes currently held, in ascending order.
func (k *Keyboard) PressedKeys() []uint8 {
	var codes []uint8
	for i := 0; i < 256; i++ {
		if k.pressed.has(uint8(i)) {
			codes = append(codes, uint8(i))
		}
	}
	return codes
}

func (k *Keyboard) handle(ev native.Event) {
	k.s.ex.appendWith(func() (KeyEvent, bool) {
		out := KeyEvent{
			Timestamp: ev.Time,
			Code:      ev.Code,
			Modifiers: ev.Modifiers,
			Repeat:    ev.Repeat,
		}
		switch ev.Kind {
		case native.KeyDown:
			out.Type = KeyPress
			k.pressed.set(ev.Code, true)
		case native.KeyUp:
			out.Type = KeyRelease
			k.pressed.set(ev.Code, false)
		default:
			return out, false
		}
		return out, true
	})
}
