package native

import (
	"fmt"
	"image"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"
)

// Terminal is a toolkit that runs inside a terminal. The front window fills
// the screen: its title on the first row and its pixels below, two pixels per
// cell using the upper half block.
//
// Terminals report no key releases, so every key press is followed by a
// synthesized KeyUp. Ctrl+C and Ctrl+Q request closing every window.
type Terminal struct {
	screen tcell.Screen

	mu          sync.Mutex
	initialized bool
	started     time.Time
	windows     map[uint32]*termWindow
	front       *termWindow
	nextID      uint32
	resized     bool

	// pointer state, touched only by Pump
	buttons tcell.ButtonMask
	lastX   int
	lastY   int
	hasPos  bool
	emitted int

	canvas   *image.RGBA
	monitors monitorSet
}

// NewTerminal creates a terminal toolkit drawing on screen. A nil screen
// opens the controlling terminal on Init.
func NewTerminal(screen tcell.Screen) *Terminal {
	return &Terminal{
		screen:  screen,
		windows: make(map[uint32]*termWindow),
	}
}

// Init opens the screen and enables mouse reporting
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initialized {
		return nil
	}
	if t.screen == nil {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("%w: stdout is not a terminal", ErrUnavailable)
		}
		s, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		t.screen = s
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	t.screen.EnableMouse()
	t.screen.HideCursor()
	t.screen.Clear()
	t.started = time.Now()
	t.initialized = true
	return nil
}

// Shutdown restores the terminal
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return
	}
	t.initialized = false
	windows := t.windows
	t.windows = make(map[uint32]*termWindow)
	t.front = nil
	t.mu.Unlock()

	for _, w := range windows {
		w.markClosed()
	}
	t.monitors.clear()
	t.screen.Fini()
}

// CreateWindow creates a window and brings it to the front
func (t *Terminal) CreateWindow(opts WindowOptions) (Window, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return nil, ErrNotInitialized
	}
	t.nextID++
	w := &termWindow{id: t.nextID, opts: opts, owner: t, dirty: true}
	t.windows[w.id] = w
	t.front = w
	return w, nil
}

// Activate redraws the front window
func (t *Terminal) Activate() error {
	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return ErrNotInitialized
	}
	t.resized = true
	t.mu.Unlock()
	t.draw()
	return nil
}

// Pump dispatches pending terminal events and redraws the front window.
// It returns the number of events delivered to monitors and stops reading
// once max have been delivered. A terminal event expands to several events
// (a key press and its release, a move and a click) and is never split, so
// the last one read may carry the count past max.
func (t *Terminal) Pump(max int) int {
	t.mu.Lock()
	ready := t.initialized
	t.mu.Unlock()
	if !ready {
		return 0
	}

	t.emitted = 0
	for (max <= 0 || t.emitted < max) && t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		if ev == nil {
			break
		}
		t.handle(ev)
	}
	t.draw()
	return t.emitted
}

func (t *Terminal) emit(ev Event) {
	t.emitted++
	t.monitors.dispatch(ev)
}

// AddMonitor installs an event monitor
func (t *Terminal) AddMonitor(mask EventMask, fn func(Event)) (MonitorID, error) {
	return t.monitors.add(mask, fn), nil
}

// RemoveMonitor removes an event monitor
func (t *Terminal) RemoveMonitor(id MonitorID) {
	t.monitors.remove(id)
}

func (t *Terminal) since(when time.Time) time.Duration {
	if when.IsZero() || when.Before(t.started) {
		return time.Since(t.started)
	}
	return when.Sub(t.started)
}

func (t *Terminal) frontWindow() *termWindow {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.front
}

func (t *Terminal) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.handleKey(ev)
	case *tcell.EventMouse:
		t.handleMouse(ev)
	case *tcell.EventResize:
		t.mu.Lock()
		t.resized = true
		t.mu.Unlock()
		t.screen.Sync()
	}
}

func (t *Terminal) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyCtrlQ {
		t.requestCloseAll()
		return
	}
	code, mods, ok := terminalKey(ev)
	if !ok {
		return
	}
	var id uint32
	if w := t.frontWindow(); w != nil {
		id = w.id
	}
	ts := t.since(ev.When())
	t.emit(Event{Kind: KeyDown, Time: ts, Window: id, Code: code, Modifiers: mods})
	t.emit(Event{Kind: KeyUp, Time: ts, Window: id, Code: code, Modifiers: mods})
}

func (t *Terminal) requestCloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, w := range t.windows {
		w.requestClose()
	}
}

var terminalButtons = []struct {
	mask   tcell.ButtonMask
	button Button
}{
	{tcell.Button1, ButtonLeft},
	{tcell.Button2, ButtonRight},
	{tcell.Button3, ButtonMiddle},
	{tcell.Button4, ButtonExtra1},
	{tcell.Button5, ButtonExtra2},
}

const terminalButtonMask = tcell.Button1 | tcell.Button2 | tcell.Button3 | tcell.Button4 | tcell.Button5

func (t *Terminal) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	mods := terminalModifiers(ev.Modifiers())
	ts := t.since(ev.When())
	w := t.frontWindow()
	var id uint32
	if w != nil {
		id = w.id
	}
	wx, wy := t.toWindow(w, x, y)
	base := Event{Time: ts, Window: id, Modifiers: mods, X: wx, Y: wy}

	buttons := ev.Buttons() & terminalButtonMask
	if !t.hasPos {
		enter := base
		enter.Kind = MouseEnter
		t.emit(enter)
	} else if x != t.lastX || y != t.lastY {
		move := base
		move.Kind = MouseMove
		if t.buttons != 0 {
			move.Kind = MouseDrag
		}
		t.emit(move)
	}
	t.hasPos = true
	t.lastX, t.lastY = x, y

	for _, b := range terminalButtons {
		was := t.buttons&b.mask != 0
		is := buttons&b.mask != 0
		if was == is {
			continue
		}
		click := base
		click.Button = b.button
		click.Kind = MouseUp
		if is {
			click.Kind = MouseDown
		}
		t.emit(click)
	}
	t.buttons = buttons

	wheel := ev.Buttons()
	var sx, sy float32
	if wheel&tcell.WheelUp != 0 {
		sy++
	}
	if wheel&tcell.WheelDown != 0 {
		sy--
	}
	if wheel&tcell.WheelLeft != 0 {
		sx--
	}
	if wheel&tcell.WheelRight != 0 {
		sx++
	}
	if sx != 0 || sy != 0 {
		scroll := base
		scroll.Kind = Scroll
		scroll.ScrollX, scroll.ScrollY = sx, sy
		t.emit(scroll)
	}
}

// toWindow maps a cell to window-local pixels at the cell center.
func (t *Terminal) toWindow(w *termWindow, x, y int) (float32, float32) {
	if w == nil {
		return float32(x), float32(y)
	}
	cols, rows := t.screen.Size()
	contentRows := rows - 1
	if cols < 1 || contentRows < 1 {
		return 0, 0
	}
	wx := (float32(x) + 0.5) * w.opts.Width / float32(cols)
	wy := (float32(y-1) + 0.5) * w.opts.Height / float32(contentRows)
	if wy < 0 {
		wy = 0
	}
	return wx, wy
}

func terminalModifiers(m tcell.ModMask) Modifiers {
	var mods Modifiers
	if m&tcell.ModShift != 0 {
		mods |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= ModSuper
	}
	return mods
}

var terminalSpecialKeys = map[tcell.Key]uint8{
	tcell.KeyEnter:      KeyReturn,
	tcell.KeyTab:        KeyTab,
	tcell.KeyBackspace:  KeyDelete,
	tcell.KeyBackspace2: KeyDelete,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyUp:         KeyArrowUp,
	tcell.KeyDown:       KeyArrowDown,
	tcell.KeyLeft:       KeyArrowLeft,
	tcell.KeyRight:      KeyArrowRight,
	tcell.KeyDelete:     KeyForwardDel,
	tcell.KeyInsert:     KeyHelp,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
	tcell.KeyF1:         KeyF1,
	tcell.KeyF2:         KeyF2,
	tcell.KeyF3:         KeyF3,
	tcell.KeyF4:         KeyF4,
	tcell.KeyF5:         KeyF5,
	tcell.KeyF6:         KeyF6,
	tcell.KeyF7:         KeyF7,
	tcell.KeyF8:         KeyF8,
	tcell.KeyF9:         KeyF9,
	tcell.KeyF10:        KeyF10,
	tcell.KeyF11:        KeyF11,
	tcell.KeyF12:        KeyF12,
}

func terminalKey(ev *tcell.EventKey) (uint8, Modifiers, bool) {
	mods := terminalModifiers(ev.Modifiers())
	k := ev.Key()
	if k == tcell.KeyRune {
		code, shift, ok := KeyFromRune(ev.Rune())
		if shift {
			mods |= ModShift
		}
		return code, mods, ok
	}
	if code, ok := terminalSpecialKeys[k]; ok {
		return code, mods, true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		code, _, ok := KeyFromRune(rune('a' + (k - tcell.KeyCtrlA)))
		return code, mods | ModCtrl, ok
	}
	return 0, 0, false
}

// draw repaints the front window when its content or the screen changed.
func (t *Terminal) draw() {
	t.mu.Lock()
	w := t.front
	resized := t.resized
	t.resized = false
	ready := t.initialized
	t.mu.Unlock()
	if !ready || w == nil {
		return
	}

	src, title, dirty := w.take()
	if !dirty && !resized {
		return
	}

	cols, rows := t.screen.Size()
	if cols < 1 || rows < 1 {
		return
	}
	t.screen.Clear()
	t.drawTitle(title, cols)

	contentRows := rows - 1
	if contentRows < 1 || src == nil {
		t.screen.Show()
		return
	}

	r := image.Rect(0, 0, cols, contentRows*2)
	if t.canvas == nil || t.canvas.Rect != r {
		t.canvas = image.NewRGBA(r)
	}
	xdraw.ApproxBiLinear.Scale(t.canvas, r, src, src.Bounds(), xdraw.Src, nil)

	for cy := 0; cy < contentRows; cy++ {
		for cx := 0; cx < cols; cx++ {
			top := t.canvas.RGBAAt(cx, cy*2)
			bottom := t.canvas.RGBAAt(cx, cy*2+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			t.screen.SetContent(cx, cy+1, '▀', nil, style)
		}
	}
	t.screen.Show()
}

func (t *Terminal) drawTitle(title string, cols int) {
	style := tcell.StyleDefault.Reverse(true)
	text := runewidth.Truncate(title, cols, "…")
	x := 0
	for _, r := range text {
		t.screen.SetContent(x, 0, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	for ; x < cols; x++ {
		t.screen.SetContent(x, 0, ' ', nil, style)
	}
}

type termWindow struct {
	id    uint32
	opts  WindowOptions
	owner *Terminal

	mu             sync.Mutex
	closed         bool
	closeRequested bool
	dirty          bool
	pixels         *image.RGBA
}

func (w *termWindow) ID() uint32 { return w.id }

// SetPixels publishes a private copy of img. A published frame is never
// written again, so draw can scale it without holding w.mu.
func (w *termWindow) SetPixels(img *image.RGBA) error {
	frame := image.NewRGBA(img.Rect)
	xdraw.Copy(frame, img.Rect.Min, img, img.Rect, xdraw.Src, nil)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWindowClosed
	}
	w.pixels = frame
	w.dirty = true
	return nil
}

// take returns the latest published frame and clears the dirty flag.
func (w *termWindow) take() (*image.RGBA, string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirty := w.dirty
	w.dirty = false
	return w.pixels, w.opts.Title, dirty
}

func (w *termWindow) OrderFront() {
	t := w.owner
	t.mu.Lock()
	if _, ok := t.windows[w.id]; ok {
		t.front = w
		t.resized = true
	}
	t.mu.Unlock()
}

func (w *termWindow) CloseRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeRequested
}

func (w *termWindow) requestClose() {
	w.mu.Lock()
	w.closeRequested = true
	w.mu.Unlock()
}

func (w *termWindow) CancelClose() {
	w.mu.Lock()
	w.closeRequested = false
	w.mu.Unlock()
}

func (w *termWindow) markClosed() {
	w.mu.Lock()
	w.closed = true
	w.closeRequested = false
	w.mu.Unlock()
}

func (w *termWindow) Close() {
	w.markClosed()

	t := w.owner
	t.mu.Lock()
	delete(t.windows, w.id)
	if t.front == w {
		t.front = nil
		for _, other := range t.windows {
			if t.front == nil || other.id > t.front.id {
				t.front = other
			}
		}
		t.resized = true
	}
	t.mu.Unlock()
	log.Printf("Terminal: window %d closed", w.id)
}
