package native

import (
	"sync"
	"time"
)

// EventKind is the type of a raw native event.
type EventKind uint8

const (
	KeyDown EventKind = iota + 1
	KeyUp
	MouseDown
	MouseUp
	MouseMove
	MouseDrag
	Scroll
	MouseEnter
	MouseExit
)

func (k EventKind) String() string {
	switch k {
	case KeyDown:
		return "key_down"
	case KeyUp:
		return "key_up"
	case MouseDown:
		return "mouse_down"
	case MouseUp:
		return "mouse_up"
	case MouseMove:
		return "mouse_move"
	case MouseDrag:
		return "mouse_drag"
	case Scroll:
		return "scroll"
	case MouseEnter:
		return "mouse_enter"
	case MouseExit:
		return "mouse_exit"
	}
	return "unknown"
}

// EventMask selects event kinds for a monitor.
type EventMask uint32

const (
	KeyboardEvents EventMask = 1<<KeyDown | 1<<KeyUp
	MouseEvents    EventMask = 1<<MouseDown | 1<<MouseUp | 1<<MouseMove | 1<<MouseDrag |
		1<<Scroll | 1<<MouseEnter | 1<<MouseExit
)

// Has reports whether kind is selected by m.
func (m EventMask) Has(kind EventKind) bool {
	return m&(1<<kind) != 0
}

// Modifiers is the bitmask of active modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Button is a mouse button.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonExtra1
	ButtonExtra2
)

// Event is one raw occurrence reported by a toolkit.
type Event struct {
	Kind EventKind
	// Time is monotonic, measured from toolkit initialization.
	Time   time.Duration
	Window uint32

	// Keyboard
	Code   uint8
	Repeat bool

	Modifiers Modifiers

	// Mouse, window-local pixels
	X, Y             float32
	ScrollX, ScrollY float32
	Button           Button
}

type monitor struct {
	id   MonitorID
	mask EventMask
	fn   func(Event)
}

// monitorSet is the subscriber list shared by the toolkits.
type monitorSet struct {
	mu   sync.Mutex
	next MonitorID
	subs []monitor
}

func (s *monitorSet) add(mask EventMask, fn func(Event)) MonitorID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.subs = append(s.subs, monitor{id: s.next, mask: mask, fn: fn})
	return s.next
}

func (s *monitorSet) remove(id MonitorID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.subs {
		if m.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *monitorSet) clear() {
	s.mu.Lock()
	s.subs = nil
	s.mu.Unlock()
}

func (s *monitorSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// dispatch delivers ev to every matching monitor. Callbacks run without the
// lock held so they may add or remove monitors.
func (s *monitorSet) dispatch(ev Event) {
	s.mu.Lock()
	var fns []func(Event)
	for _, m := range s.subs {
		if m.mask.Has(ev.Kind) {
			fns = append(fns, m.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
