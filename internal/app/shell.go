// Package app is the facade a host uses to drive the native bridge: one
// application context owning the toolkit, the window registry, the viewport
// and both capture sessions.
package app

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"nativebridge/internal/input"
	"nativebridge/internal/native"
	"nativebridge/internal/osutils"
	"nativebridge/internal/telemetry"
	"nativebridge/internal/viewport"
	"nativebridge/internal/window"
)

var (
	// ErrNotInitialized is returned by UI calls made before InitApplication
	ErrNotInitialized = errors.New("application not initialized")

	// ErrAlreadyInitialized is returned by a second InitApplication
	ErrAlreadyInitialized = errors.New("application already initialized")

	// ErrWrongThread is returned when a UI call is made off the UI thread
	ErrWrongThread = errors.New("call must be made on the UI thread")
)

// DefaultMaxEventsPerPump is the number of native events ProcessEvents
// dispatches per call.
const DefaultMaxEventsPerPump = 10

// Recorder receives per-poll statistics.
type Recorder interface {
	Record(telemetry.Sample)
}

// Options configures a Shell.
type Options struct {
	// MaxEventsPerPump bounds ProcessEvents. Zero means DefaultMaxEventsPerPump.
	MaxEventsPerPump int
	// HalfExtent of the game coordinate space. Zero means the viewport default.
	HalfExtent float32
	// LogOverflow logs every polled batch that dropped events.
	LogOverflow bool
	// Recorder, when set, receives one sample per successful poll.
	Recorder Recorder
}

// Shell owns the application context.
//
// InitApplication pins the calling goroutine to its OS thread, which becomes
// the UI thread. Window lifecycle, monitoring start/stop, ProcessEvents and
// MakeApplicationVisible must be called there. Polls, key and button queries,
// SetWindowDimensions, ShouldWindowClose and UpdateWindowPixels may be called
// from any goroutine.
type Shell struct {
	tk   native.Toolkit
	opts Options

	mu          sync.Mutex
	initialized bool
	uiThread    uint64

	vp       *viewport.Viewport
	windows  *window.Registry
	keyboard *input.Keyboard
	mouse    *input.Mouse
}

// New creates an uninitialized shell on tk.
func New(tk native.Toolkit, opts Options) *Shell {
	if opts.MaxEventsPerPump <= 0 {
		opts.MaxEventsPerPump = DefaultMaxEventsPerPump
	}
	vp := viewport.New(opts.HalfExtent)
	return &Shell{
		tk:       tk,
		opts:     opts,
		vp:       vp,
		windows:  window.NewRegistry(tk),
		keyboard: input.NewKeyboard(tk),
		mouse:    input.NewMouse(tk, vp),
	}
}

// InitApplication initializes the toolkit and makes the calling OS thread
// the UI thread.
func (s *Shell) InitApplication() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ErrAlreadyInitialized
	}

	runtime.LockOSThread()
	if err := s.tk.Init(); err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("init application: %w", err)
	}
	s.uiThread = osutils.ThreadID()
	s.initialized = true

	if s.uiThread == 0 {
		log.Printf("App: initialized (thread checks unavailable on %s)", runtime.GOOS)
	} else {
		log.Printf("App: initialized on thread %d", s.uiThread)
	}
	return nil
}

// Initialized reports whether InitApplication succeeded and Close was not
// called since.
func (s *Shell) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// onUIThread fails unless the shell is initialized and the caller runs on
// the UI thread.
func (s *Shell) onUIThread() error {
	s.mu.Lock()
	initialized, ui := s.initialized, s.uiThread
	s.mu.Unlock()

	if !initialized {
		return ErrNotInitialized
	}
	if ui != 0 && osutils.ThreadID() != ui {
		return ErrWrongThread
	}
	return nil
}

// MakeApplicationVisible brings the application and its windows to the front.
func (s *Shell) MakeApplicationVisible() error {
	if err := s.onUIThread(); err != nil {
		return err
	}
	return s.windows.ShowAll()
}

// ProcessEvents runs one iteration of the native event loop, dispatching at
// most MaxEventsPerPump events to the capture sessions and windows.
func (s *Shell) ProcessEvents() (int, error) {
	if err := s.onUIThread(); err != nil {
		return 0, err
	}
	return s.tk.Pump(s.opts.MaxEventsPerPump), nil
}

// CreateWindow opens a window.
func (s *Shell) CreateWindow(cfg window.Config) (window.Handle, error) {
	if err := s.onUIThread(); err != nil {
		return window.InvalidHandle, err
	}
	return s.windows.Create(cfg)
}

// DestroyWindow closes a window. Unknown handles return window.ErrUnknownWindow.
func (s *Shell) DestroyWindow(h window.Handle) error {
	if err := s.onUIThread(); err != nil {
		return err
	}
	return s.windows.Destroy(h)
}

// ShouldWindowClose reports a pending close request. Unknown handles report true.
func (s *Shell) ShouldWindowClose(h window.Handle) bool {
	return s.windows.ShouldClose(h)
}

// CancelWindowClose clears a pending close request.
func (s *Shell) CancelWindowClose(h window.Handle) error {
	return s.windows.CancelClose(h)
}

// UpdateWindowPixels presents a tightly packed RGBA buffer in the window.
func (s *Shell) UpdateWindowPixels(h window.Handle, pixels []byte, width, height int32) error {
	return s.windows.UpdatePixels(h, pixels, width, height)
}

// Windows returns the live window handles
func (s *Shell) Windows() []window.Handle {
	return s.windows.Handles()
}

// StartKeyboardMonitoring installs the keyboard monitor.
func (s *Shell) StartKeyboardMonitoring() error {
	if err := s.onUIThread(); err != nil {
		return err
	}
	return s.keyboard.Start()
}

// StopKeyboardMonitoring removes the keyboard monitor. Before initialization
// there is nothing to stop.
func (s *Shell) StopKeyboardMonitoring() error {
	if err := s.onUIThread(); err != nil {
		if errors.Is(err, ErrNotInitialized) {
			return nil
		}
		return err
	}
	s.keyboard.Stop()
	return nil
}

// PollKeyboardEventBatch moves pending key events into out. It returns false
// and leaves out untouched when keyboard monitoring is stopped.
func (s *Shell) PollKeyboardEventBatch(out *input.KeyBatch) bool {
	if !s.keyboard.Poll(out) {
		return false
	}
	s.report("keyboard", out.Count, out.Dropped)
	return true
}

// IsKeyPressed reports the live state of a key code.
func (s *Shell) IsKeyPressed(code uint8) bool {
	return s.keyboard.IsKeyPressed(code)
}

// PressedKeys returns the key codes currently held, in ascending order
func (s *Shell) PressedKeys() []uint8 {
	return s.keyboard.PressedKeys()
}

// StartMouseMonitoring installs the mouse monitor.
func (s *Shell) StartMouseMonitoring() error {
	if err := s.onUIThread(); err != nil {
		return err
	}
	return s.mouse.Start()
}

// StopMouseMonitoring removes the mouse monitor.
func (s *Shell) StopMouseMonitoring() error {
	if err := s.onUIThread(); err != nil {
		if errors.Is(err, ErrNotInitialized) {
			return nil
		}
		return err
	}
	s.mouse.Stop()
	return nil
}

// PollMouseEventBatch moves pending mouse events into out. It returns false
// and leaves out untouched when mouse monitoring is stopped.
func (s *Shell) PollMouseEventBatch(out *input.MouseBatch) bool {
	if !s.mouse.Poll(out) {
		return false
	}
	s.report("mouse", out.Count, out.Dropped)
	return true
}

// IsMouseButtonPressed reports the live state of a mouse button.
func (s *Shell) IsMouseButtonPressed(b input.Button) bool {
	return s.mouse.IsButtonPressed(b)
}

// SetWindowDimensions sets the window size used to compute game coordinates
// of mouse events produced from now on. Non-positive sizes are ignored.
func (s *Shell) SetWindowDimensions(width, height int32) bool {
	if !s.mouse.SetWindowDimensions(width, height) {
		log.Printf("App: ignoring window dimensions %dx%d", width, height)
		return false
	}
	return true
}

// Viewport returns the shared window-to-game transform
func (s *Shell) Viewport() *viewport.Viewport {
	return s.vp
}

// Close stops monitoring, destroys every window and shuts the toolkit down.
// It must run on the UI thread; closing an uninitialized shell does nothing.
func (s *Shell) Close() error {
	if err := s.onUIThread(); err != nil {
		if errors.Is(err, ErrNotInitialized) {
			return nil
		}
		return err
	}

	s.keyboard.Stop()
	s.mouse.Stop()
	s.windows.DestroyAll()
	s.tk.Shutdown()

	s.mu.Lock()
	s.initialized = false
	s.uiThread = 0
	s.mu.Unlock()

	runtime.UnlockOSThread()
	log.Println("App: closed")
	return nil
}

func (s *Shell) report(device string, count, dropped int) {
	if dropped > 0 && s.opts.LogOverflow {
		log.Printf("Input: %s batch overflow, %d events dropped", device, dropped)
	}
	if s.opts.Recorder != nil {
		s.opts.Recorder.Record(telemetry.Sample{Device: device, Count: count, Dropped: dropped})
	}
}
