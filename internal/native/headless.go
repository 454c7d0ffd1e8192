package native

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Headless is an in-memory toolkit. Events are either queued with Post and
// delivered by Pump, or delivered immediately with Dispatch, the way a native
// run loop invokes callbacks.
type Headless struct {
	// FailInit makes Init report ErrUnavailable.
	FailInit bool
	// DenyMonitors makes AddMonitor report ErrPermission.
	DenyMonitors bool

	mu          sync.Mutex
	initialized bool
	started     time.Time
	active      bool
	queue       []Event
	windows     map[uint32]*HeadlessWindow
	nextID      uint32

	monitors monitorSet
}

// NewHeadless creates a headless toolkit.
func NewHeadless() *Headless {
	return &Headless{
		windows: make(map[uint32]*HeadlessWindow),
	}
}

// Init prepares the toolkit
func (h *Headless) Init() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailInit {
		return ErrUnavailable
	}
	h.initialized = true
	h.started = time.Now()
	return nil
}

// Shutdown closes every window and drops queued events
func (h *Headless) Shutdown() {
	h.mu.Lock()
	windows := h.windows
	h.windows = make(map[uint32]*HeadlessWindow)
	h.queue = nil
	h.initialized = false
	h.mu.Unlock()

	for _, w := range windows {
		w.Close()
	}
	h.monitors.clear()
}

// CreateWindow creates an invisible window
func (h *Headless) CreateWindow(opts WindowOptions) (Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return nil, ErrNotInitialized
	}
	h.nextID++
	w := &HeadlessWindow{id: h.nextID, opts: opts, owner: h}
	h.windows[w.id] = w
	return w, nil
}

// Activate marks the application active
func (h *Headless) Activate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return ErrNotInitialized
	}
	h.active = true
	return nil
}

// Active reports whether Activate was called
func (h *Headless) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Pump delivers queued events in the order they were posted
func (h *Headless) Pump(max int) int {
	h.mu.Lock()
	n := len(h.queue)
	if max > 0 && n > max {
		n = max
	}
	batch := make([]Event, n)
	copy(batch, h.queue[:n])
	h.queue = h.queue[n:]
	h.mu.Unlock()

	for _, ev := range batch {
		h.monitors.dispatch(ev)
	}
	return n
}

// AddMonitor installs an event monitor
func (h *Headless) AddMonitor(mask EventMask, fn func(Event)) (MonitorID, error) {
	h.mu.Lock()
	deny := h.DenyMonitors
	h.mu.Unlock()
	if deny {
		return 0, ErrPermission
	}
	return h.monitors.add(mask, fn), nil
}

// RemoveMonitor removes an event monitor
func (h *Headless) RemoveMonitor(id MonitorID) {
	h.monitors.remove(id)
}

// Monitors returns the number of installed monitors
func (h *Headless) Monitors() int {
	return h.monitors.len()
}

// Now returns the toolkit clock.
func (h *Headless) Now() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started.IsZero() {
		return 0
	}
	return time.Since(h.started)
}

// Post queues ev for the next Pump. A zero Time is stamped with Now.
func (h *Headless) Post(ev Event) {
	if ev.Time == 0 {
		ev.Time = h.Now()
	}
	h.mu.Lock()
	h.queue = append(h.queue, ev)
	h.mu.Unlock()
}

// Pending returns the number of queued events
func (h *Headless) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Dispatch delivers ev to the monitors immediately.
func (h *Headless) Dispatch(ev Event) {
	if ev.Time == 0 {
		ev.Time = h.Now()
	}
	h.monitors.dispatch(ev)
}

// RequestClose simulates the user clicking the close control of window id.
func (h *Headless) RequestClose(id uint32) bool {
	w := h.Window(id)
	if w == nil {
		return false
	}
	w.closeRequested.Store(true)
	return true
}

// Window returns the open window with the given id, or nil.
func (h *Headless) Window(id uint32) *HeadlessWindow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.windows[id]
}

// Windows returns the number of open windows
func (h *Headless) Windows() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.windows)
}

func (h *Headless) forget(id uint32) {
	h.mu.Lock()
	delete(h.windows, id)
	h.mu.Unlock()
}

// HeadlessWindow is a window of the headless toolkit.
type HeadlessWindow struct {
	id    uint32
	opts  WindowOptions
	owner *Headless

	closeRequested atomic.Bool

	mu     sync.Mutex
	closed bool
	front  int
	frames int
	pixels *image.RGBA
}

func (w *HeadlessWindow) ID() uint32 { return w.id }

// Options returns the options the window was created with
func (w *HeadlessWindow) Options() WindowOptions { return w.opts }

func (w *HeadlessWindow) SetPixels(img *image.RGBA) error {
	frame := image.NewRGBA(img.Rect)
	copy(frame.Pix, img.Pix)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWindowClosed
	}
	w.pixels = frame
	w.frames++
	return nil
}

// Frames returns how many times SetPixels succeeded
func (w *HeadlessWindow) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Pixels returns the last presented content
func (w *HeadlessWindow) Pixels() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pixels
}

func (w *HeadlessWindow) OrderFront() {
	w.mu.Lock()
	w.front++
	w.mu.Unlock()
}

// FrontCount returns how many times the window was ordered front
func (w *HeadlessWindow) FrontCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.front
}

func (w *HeadlessWindow) CloseRequested() bool { return w.closeRequested.Load() }

func (w *HeadlessWindow) CancelClose() { w.closeRequested.Store(false) }

func (w *HeadlessWindow) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()
	w.closeRequested.Store(false)
	w.owner.forget(w.id)
}

// Closed reports whether Close was called
func (w *HeadlessWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
