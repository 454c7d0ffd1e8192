package input

import (
	"sync/atomic"

	"nativebridge/internal/native"
	"nativebridge/internal/viewport"
)

// Mouse captures pointer events from a toolkit and annotates them with game
// coordinates from a shared viewport.
type Mouse struct {
	s  session[MouseEvent]
	vp *viewport.Viewport

	// guarded by the exchange producer lock
	lastX, lastY float32
	hasLast      bool

	buttons atomic.Uint32
}

// NewMouse creates a stopped mouse session on tk. A nil viewport gets a
// private one with the default half extent.
func NewMouse(tk native.Toolkit, vp *viewport.Viewport) *Mouse {
	if vp == nil {
		vp = viewport.New(viewport.DefaultHalfExtent)
	}
	return &Mouse{
		s:  session[MouseEvent]{name: "mouse", tk: tk, mask: native.MouseEvents},
		vp: vp,
	}
}

// Start installs the mouse monitor. The first position observed afterwards
// produces a zero delta.
func (m *Mouse) Start() error {
	if m.s.state() == Running {
		return nil
	}
	m.s.ex.mu.Lock()
	m.hasLast = false
	m.s.ex.mu.Unlock()
	return m.s.start(m.handle)
}

// Stop removes the monitor and discards pending events.
func (m *Mouse) Stop() {
	if m.s.stop() {
		m.buttons.Store(0)
	}
}

// Poll moves the events gathered since the previous poll into out. It
// returns false and leaves out untouched when the session is not running.
func (m *Mouse) Poll(out *MouseBatch) bool {
	return m.s.poll(out)
}

// State returns the session state
func (m *Mouse) State() State {
	return m.s.state()
}

// Viewport returns the transform used for game coordinates.
func (m *Mouse) Viewport() *viewport.Viewport {
	return m.vp
}

// SetWindowDimensions updates the transform for events produced from now on.
func (m *Mouse) SetWindowDimensions(width, height int32) bool {
	return m.vp.SetDimensions(width, height)
}

// IsButtonPressed reports whether b is currently held.
func (m *Mouse) IsButtonPressed(b Button) bool {
	if b >= ButtonNone {
		return false
	}
	return m.buttons.Load()&(1<<b) != 0
}

func (m *Mouse) setButton(b Button, down bool) {
	if b >= ButtonNone {
		return
	}
	for {
		old := m.buttons.Load()
		next := old &^ (1 << b)
		if down {
			next = old | 1<<b
		}
		if old == next || m.buttons.CompareAndSwap(old, next) {
			return
		}
	}
}

func (m *Mouse) handle(ev native.Event) {
	m.s.ex.appendWith(func() (MouseEvent, bool) {
		out := MouseEvent{
			Timestamp: ev.Time,
			WindowX:   ev.X,
			WindowY:   ev.Y,
			Button:    buttonFromNative(ev.Button),
			Modifiers: ev.Modifiers,
		}
		out.GameX, out.GameY = m.vp.ToGame(ev.X, ev.Y)

		switch ev.Kind {
		case native.MouseDown:
			out.Type = ButtonPress
			out.IsPressed = true
			m.setButton(out.Button, true)
		case native.MouseUp:
			out.Type = ButtonRelease
			m.setButton(out.Button, false)
		case native.MouseMove, native.MouseDrag:
			out.Type = Move
			if m.hasLast {
				out.DeltaX = ev.X - m.lastX
				out.DeltaY = ev.Y - m.lastY
			}
		case native.Scroll:
			out.Type = Scroll
			out.ScrollDeltaX = ev.ScrollX
			out.ScrollDeltaY = ev.ScrollY
		case native.MouseEnter:
			out.Type = EnterWindow
		case native.MouseExit:
			out.Type = ExitWindow
		default:
			return out, false
		}

		m.lastX, m.lastY, m.hasLast = ev.X, ev.Y, true
		return out, true
	})
}
