//go:build windows

package native

import (
	"fmt"
	"image"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation of the toolkit using plain user32/gdi32 windows

const (
	_CS_HREDRAW          = 0x0002
	_CS_VREDRAW          = 0x0001
	_CW_USEDEFAULT       = 0x80000000
	_WS_OVERLAPPEDWINDOW = 0x00CF0000
	_SW_SHOW             = 5
	_PM_REMOVE           = 0x0001
	_IDC_ARROW           = 32512
	_TME_LEAVE           = 0x00000002
	_DIB_RGB_COLORS      = 0
	_SRCCOPY             = 0x00CC0020
	_BI_RGB              = 0
	_WHEEL_DELTA         = 120

	_WM_DESTROY     = 0x0002
	_WM_PAINT       = 0x000F
	_WM_CLOSE       = 0x0010
	_WM_ERASEBKGND  = 0x0014
	_WM_KEYDOWN     = 0x0100
	_WM_KEYUP       = 0x0101
	_WM_SYSKEYDOWN  = 0x0104
	_WM_SYSKEYUP    = 0x0105
	_WM_MOUSEMOVE   = 0x0200
	_WM_LBUTTONDOWN = 0x0201
	_WM_LBUTTONUP   = 0x0202
	_WM_RBUTTONDOWN = 0x0204
	_WM_RBUTTONUP   = 0x0205
	_WM_MBUTTONDOWN = 0x0207
	_WM_MBUTTONUP   = 0x0208
	_WM_MOUSEWHEEL  = 0x020A
	_WM_XBUTTONDOWN = 0x020B
	_WM_XBUTTONUP   = 0x020C
	_WM_MOUSEHWHEEL = 0x020E
	_WM_MOUSELEAVE  = 0x02A3

	_MK_LBUTTON  = 0x0001
	_MK_RBUTTON  = 0x0002
	_MK_MBUTTON  = 0x0010
	_MK_XBUTTON1 = 0x0020
	_MK_XBUTTON2 = 0x0040

	_VK_SHIFT   = 0x10
	_VK_CONTROL = 0x11
	_VK_MENU    = 0x12
	_VK_LWIN    = 0x5B
	_VK_RWIN    = 0x5C
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassEx    = user32.NewProc("RegisterClassExW")
	procCreateWindowEx     = user32.NewProc("CreateWindowExW")
	procDefWindowProc      = user32.NewProc("DefWindowProcW")
	procDestroyWindow      = user32.NewProc("DestroyWindow")
	procShowWindow         = user32.NewProc("ShowWindow")
	procUpdateWindow       = user32.NewProc("UpdateWindow")
	procSetForegroundWnd   = user32.NewProc("SetForegroundWindow")
	procPeekMessage        = user32.NewProc("PeekMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessage    = user32.NewProc("DispatchMessageW")
	procInvalidateRect     = user32.NewProc("InvalidateRect")
	procBeginPaint         = user32.NewProc("BeginPaint")
	procEndPaint           = user32.NewProc("EndPaint")
	procGetClientRect      = user32.NewProc("GetClientRect")
	procAdjustWindowRectEx = user32.NewProc("AdjustWindowRectEx")
	procLoadCursor         = user32.NewProc("LoadCursorW")
	procGetKeyState        = user32.NewProc("GetKeyState")
	procTrackMouseEvent    = user32.NewProc("TrackMouseEvent")
	procGetModuleHandle    = kernel32.NewProc("GetModuleHandleW")
	procStretchDIBits      = gdi32.NewProc("StretchDIBits")
)

type wndClassEx struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     windows.Handle
	HIcon         windows.Handle
	HCursor       windows.Handle
	HbrBackground windows.Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       windows.Handle
}

type winPoint struct {
	X, Y int32
}

type winMsg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      winPoint
}

type winRect struct {
	Left, Top, Right, Bottom int32
}

type paintStruct struct {
	Hdc         windows.Handle
	Erase       int32
	RcPaint     winRect
	Restore     int32
	IncUpdate   int32
	RgbReserved [32]byte
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

type trackMouseEvent struct {
	CbSize      uint32
	DwFlags     uint32
	HwndTrack   windows.Handle
	DwHoverTime uint32
}

var (
	win32ClassOnce sync.Once
	win32ClassName *uint16
	win32ClassErr  error

	// win32Windows is only touched on the UI thread: by the toolkit methods
	// and by win32WindowProc, which runs inside DispatchMessage.
	win32Windows = make(map[windows.Handle]*win32Window)
)

// Win32 is the Windows toolkit.
type Win32 struct {
	mu          sync.Mutex
	initialized bool
	started     time.Time
	instance    windows.Handle
	nextID      uint32
	last        *win32Window

	monitors monitorSet
}

// NewWin32 creates the Windows toolkit
func NewWin32() (Toolkit, error) {
	return &Win32{}, nil
}

func registerWin32Class(instance windows.Handle) error {
	win32ClassOnce.Do(func() {
		name, err := windows.UTF16PtrFromString("NativeBridgeWindow")
		if err != nil {
			win32ClassErr = err
			return
		}
		cursor, _, _ := procLoadCursor.Call(0, uintptr(_IDC_ARROW))
		wc := wndClassEx{
			CbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
			Style:         _CS_HREDRAW | _CS_VREDRAW,
			LpfnWndProc:   windows.NewCallback(win32WindowProc),
			HInstance:     instance,
			HCursor:       windows.Handle(cursor),
			LpszClassName: name,
		}
		ret, _, err := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
		if ret == 0 {
			win32ClassErr = fmt.Errorf("RegisterClassEx: %v", err)
			return
		}
		win32ClassName = name
	})
	return win32ClassErr
}

// Init registers the window class
func (t *Win32) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initialized {
		return nil
	}
	instance, _, err := procGetModuleHandle.Call(0)
	if instance == 0 {
		return fmt.Errorf("%w: GetModuleHandle: %v", ErrUnavailable, err)
	}
	if err := registerWin32Class(windows.Handle(instance)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	t.instance = windows.Handle(instance)
	t.started = time.Now()
	t.initialized = true
	return nil
}

// Shutdown destroys every window owned by this toolkit
func (t *Win32) Shutdown() {
	t.mu.Lock()
	t.initialized = false
	t.last = nil
	t.mu.Unlock()

	for hwnd, w := range win32Windows {
		if w.owner == t {
			w.Close()
			delete(win32Windows, hwnd)
		}
	}
	t.monitors.clear()
}

// CreateWindow creates and shows a top-level window
func (t *Win32) CreateWindow(opts WindowOptions) (Window, error) {
	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return nil, ErrNotInitialized
	}
	t.nextID++
	id := t.nextID
	instance := t.instance
	t.mu.Unlock()

	title, err := windows.UTF16PtrFromString(opts.Title)
	if err != nil {
		return nil, err
	}
	r := winRect{Right: int32(opts.Width), Bottom: int32(opts.Height)}
	procAdjustWindowRectEx.Call(uintptr(unsafe.Pointer(&r)), _WS_OVERLAPPEDWINDOW, 0, 0)

	hwnd, _, err := procCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(win32ClassName)),
		uintptr(unsafe.Pointer(title)),
		_WS_OVERLAPPEDWINDOW,
		_CW_USEDEFAULT, _CW_USEDEFAULT,
		uintptr(r.Right-r.Left), uintptr(r.Bottom-r.Top),
		0, 0, uintptr(instance), 0,
	)
	if hwnd == 0 {
		return nil, fmt.Errorf("CreateWindowEx: %v", err)
	}

	w := &win32Window{id: id, hwnd: windows.Handle(hwnd), owner: t}
	win32Windows[w.hwnd] = w
	procShowWindow.Call(hwnd, _SW_SHOW)
	procUpdateWindow.Call(hwnd)

	t.mu.Lock()
	t.last = w
	t.mu.Unlock()
	return w, nil
}

// Activate brings the most recently created window to the foreground
func (t *Win32) Activate() error {
	t.mu.Lock()
	w := t.last
	ready := t.initialized
	t.mu.Unlock()
	if !ready {
		return ErrNotInitialized
	}
	if w != nil {
		w.OrderFront()
	}
	return nil
}

// Pump dispatches pending messages of the calling thread
func (t *Win32) Pump(max int) int {
	var m winMsg
	n := 0
	for max <= 0 || n < max {
		ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, _PM_REMOVE)
		if ret == 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
		n++
	}
	return n
}

// PeekMessage with a nil window drains every message of the thread.
func (t *Win32) pumpsOSMessages() bool { return true }

// AddMonitor installs an event monitor
func (t *Win32) AddMonitor(mask EventMask, fn func(Event)) (MonitorID, error) {
	return t.monitors.add(mask, fn), nil
}

// RemoveMonitor removes an event monitor
func (t *Win32) RemoveMonitor(id MonitorID) {
	t.monitors.remove(id)
}

func (t *Win32) now() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.started)
}

type win32Window struct {
	id    uint32
	hwnd  windows.Handle
	owner *Win32

	tracking bool
	lastX    float32
	lastY    float32

	mu             sync.Mutex
	closed         bool
	closeRequested bool
	width          int
	height         int
	bgra           []byte
}

func (w *win32Window) ID() uint32 { return w.id }

func (w *win32Window) SetPixels(img *image.RGBA) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWindowClosed
	}
	b := img.Bounds()
	w.width, w.height = b.Dx(), b.Dy()
	if len(w.bgra) != w.width*w.height*4 {
		w.bgra = make([]byte, w.width*w.height*4)
	}
	// GDI wants BGRA rows.
	for y := 0; y < w.height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w.width*4]
		dst := w.bgra[y*w.width*4 : (y+1)*w.width*4]
		for i := 0; i < len(src); i += 4 {
			dst[i+0] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+0]
			dst[i+3] = src[i+3]
		}
	}
	procInvalidateRect.Call(uintptr(w.hwnd), 0, 0)
	return nil
}

func (w *win32Window) paint() {
	var ps paintStruct
	hdc, _, _ := procBeginPaint.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&ps)))
	defer procEndPaint.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&ps)))

	w.mu.Lock()
	defer w.mu.Unlock()
	if hdc == 0 || len(w.bgra) == 0 {
		return
	}
	var r winRect
	procGetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r)))
	bmi := bitmapInfo{Header: bitmapInfoHeader{
		Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		Width:       int32(w.width),
		Height:      -int32(w.height), // top-down
		Planes:      1,
		BitCount:    32,
		Compression: _BI_RGB,
	}}
	procStretchDIBits.Call(hdc,
		0, 0, uintptr(r.Right-r.Left), uintptr(r.Bottom-r.Top),
		0, 0, uintptr(w.width), uintptr(w.height),
		uintptr(unsafe.Pointer(&w.bgra[0])),
		uintptr(unsafe.Pointer(&bmi)),
		_DIB_RGB_COLORS, _SRCCOPY)
}

func (w *win32Window) OrderFront() {
	procShowWindow.Call(uintptr(w.hwnd), _SW_SHOW)
	procSetForegroundWnd.Call(uintptr(w.hwnd))
}

func (w *win32Window) CloseRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeRequested
}

func (w *win32Window) CancelClose() {
	w.mu.Lock()
	w.closeRequested = false
	w.mu.Unlock()
}

func (w *win32Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.closeRequested = false
	w.mu.Unlock()

	procDestroyWindow.Call(uintptr(w.hwnd))
	delete(win32Windows, w.hwnd)
}

func (w *win32Window) dispatch(ev Event) {
	ev.Time = w.owner.now()
	ev.Window = w.id
	w.owner.monitors.dispatch(ev)
}

func win32WindowProc(hwnd windows.Handle, msg, wParam, lParam uintptr) uintptr {
	w := win32Windows[hwnd]
	if w == nil {
		ret, _, _ := procDefWindowProc.Call(uintptr(hwnd), msg, wParam, lParam)
		return ret
	}
	switch msg {
	case _WM_CLOSE:
		// The host decides when to destroy the window.
		w.mu.Lock()
		w.closeRequested = true
		w.mu.Unlock()
		return 0
	case _WM_DESTROY:
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
	case _WM_ERASEBKGND:
		return 1
	case _WM_PAINT:
		w.paint()
		return 0
	case _WM_KEYDOWN, _WM_SYSKEYDOWN, _WM_KEYUP, _WM_SYSKEYUP:
		code, ok := KeyFromWindowsVK(uint16(wParam))
		if !ok {
			break
		}
		kind := KeyDown
		if msg == _WM_KEYUP || msg == _WM_SYSKEYUP {
			kind = KeyUp
		}
		w.dispatch(Event{
			Kind:      kind,
			Code:      code,
			Repeat:    kind == KeyDown && lParam&(1<<30) != 0,
			Modifiers: win32Modifiers(),
		})
	case _WM_MOUSEMOVE:
		x, y := coordsFromlParam(lParam)
		w.lastX, w.lastY = x, y
		if !w.tracking {
			tme := trackMouseEvent{
				CbSize:    uint32(unsafe.Sizeof(trackMouseEvent{})),
				DwFlags:   _TME_LEAVE,
				HwndTrack: hwnd,
			}
			procTrackMouseEvent.Call(uintptr(unsafe.Pointer(&tme)))
			w.tracking = true
			w.dispatch(Event{Kind: MouseEnter, X: x, Y: y, Modifiers: win32Modifiers()})
			break
		}
		kind := MouseMove
		if wParam&(_MK_LBUTTON|_MK_RBUTTON|_MK_MBUTTON|_MK_XBUTTON1|_MK_XBUTTON2) != 0 {
			kind = MouseDrag
		}
		w.dispatch(Event{Kind: kind, X: x, Y: y, Modifiers: win32Modifiers()})
	case _WM_MOUSELEAVE:
		w.tracking = false
		w.dispatch(Event{Kind: MouseExit, X: w.lastX, Y: w.lastY, Modifiers: win32Modifiers()})
	case _WM_LBUTTONDOWN:
		w.pointerButton(ButtonLeft, true, lParam)
	case _WM_LBUTTONUP:
		w.pointerButton(ButtonLeft, false, lParam)
	case _WM_RBUTTONDOWN:
		w.pointerButton(ButtonRight, true, lParam)
	case _WM_RBUTTONUP:
		w.pointerButton(ButtonRight, false, lParam)
	case _WM_MBUTTONDOWN:
		w.pointerButton(ButtonMiddle, true, lParam)
	case _WM_MBUTTONUP:
		w.pointerButton(ButtonMiddle, false, lParam)
	case _WM_XBUTTONDOWN, _WM_XBUTTONUP:
		btn := ButtonExtra1
		if (wParam>>16)&0xffff == 2 {
			btn = ButtonExtra2
		}
		w.pointerButton(btn, msg == _WM_XBUTTONDOWN, lParam)
		return 1
	case _WM_MOUSEWHEEL, _WM_MOUSEHWHEEL:
		// Wheel coordinates are in screen space; report the last client position.
		dist := float32(int16(wParam>>16)) / _WHEEL_DELTA
		ev := Event{Kind: Scroll, X: w.lastX, Y: w.lastY, Modifiers: win32Modifiers()}
		if msg == _WM_MOUSEWHEEL {
			ev.ScrollY = dist
		} else {
			ev.ScrollX = dist
		}
		w.dispatch(ev)
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(uintptr(hwnd), msg, wParam, lParam)
	return ret
}

func (w *win32Window) pointerButton(btn Button, press bool, lParam uintptr) {
	x, y := coordsFromlParam(lParam)
	w.lastX, w.lastY = x, y
	kind := MouseUp
	if press {
		kind = MouseDown
	}
	w.dispatch(Event{Kind: kind, Button: btn, X: x, Y: y, Modifiers: win32Modifiers()})
}

func coordsFromlParam(lParam uintptr) (float32, float32) {
	x := int16(lParam & 0xffff)
	y := int16((lParam >> 16) & 0xffff)
	return float32(x), float32(y)
}

func keyDown(vk uintptr) bool {
	state, _, _ := procGetKeyState.Call(vk)
	return uint16(state)&0x8000 != 0
}

func win32Modifiers() Modifiers {
	var mods Modifiers
	if keyDown(_VK_SHIFT) {
		mods |= ModShift
	}
	if keyDown(_VK_CONTROL) {
		mods |= ModCtrl
	}
	if keyDown(_VK_MENU) {
		mods |= ModAlt
	}
	if keyDown(_VK_LWIN) || keyDown(_VK_RWIN) {
		mods |= ModSuper
	}
	return mods
}
