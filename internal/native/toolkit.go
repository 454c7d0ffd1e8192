// Package native defines the contract between the bridge and a native windowing
// toolkit, together with the toolkits the bridge ships: an in-memory headless
// toolkit, a terminal toolkit built on tcell and a win32 toolkit.
package native

import (
	"errors"
	"fmt"
	"image"
	"runtime"
)

var (
	// ErrUnavailable is returned when the native UI subsystem cannot be used
	ErrUnavailable = errors.New("native UI subsystem unavailable")

	// ErrPermission is returned when the toolkit refuses an input subscription
	ErrPermission = errors.New("input monitoring permission denied")

	// ErrNotInitialized is returned when the toolkit is used before Init
	ErrNotInitialized = errors.New("toolkit not initialized")

	// ErrWindowClosed is returned when a closed window is used
	ErrWindowClosed = errors.New("window closed")

	// ErrUnknownBackend is returned by Open for an unrecognized backend name
	ErrUnknownBackend = errors.New("unknown toolkit backend")
)

// WindowOptions describes a window to create.
type WindowOptions struct {
	Width  float32
	Height float32
	Title  string
}

// MonitorID identifies an installed event monitor.
type MonitorID uint32

// Toolkit is the native windowing toolkit. All methods except the ones on
// Window.SetPixels must be called from the UI thread.
type Toolkit interface {
	// Init prepares the process-wide application context.
	Init() error
	// Shutdown releases the toolkit. Safe to call more than once.
	Shutdown()
	CreateWindow(opts WindowOptions) (Window, error)
	// Activate brings the application to the foreground.
	Activate() error
	// Pump dispatches at most max pending native events (all of them when
	// max <= 0) and returns how many were dispatched.
	Pump(max int) int
	// AddMonitor subscribes fn to every raw event whose kind is in mask.
	AddMonitor(mask EventMask, fn func(Event)) (MonitorID, error)
	RemoveMonitor(id MonitorID)
}

// Window is a native window owned by a Toolkit.
type Window interface {
	ID() uint32
	// SetPixels stores img as the window content; it is shown on the next pump.
	// The toolkit does not retain img after the call returns.
	SetPixels(img *image.RGBA) error
	OrderFront()
	// CloseRequested reports whether the user asked to close the window. The
	// request stays set until CancelClose or Close.
	CloseRequested() bool
	CancelClose()
	Close()
}

// PumpsOSMessages reports whether Pump drains the operating system message
// queue of the UI thread. Components that register with that queue, such as
// a tray icon, only receive events on toolkits where it does.
func PumpsOSMessages(tk Toolkit) bool {
	p, ok := tk.(interface{ pumpsOSMessages() bool })
	return ok && p.pumpsOSMessages()
}

// Open returns the toolkit registered under name. "auto" picks win32 on
// Windows and the terminal toolkit elsewhere.
func Open(name string) (Toolkit, error) {
	switch name {
	case "", "auto":
		if runtime.GOOS == "windows" {
			return NewWin32()
		}
		return NewTerminal(nil), nil
	case "terminal":
		return NewTerminal(nil), nil
	case "win32":
		return NewWin32()
	case "headless":
		return NewHeadless(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}
