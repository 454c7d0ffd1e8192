// Package window tracks the native windows the host has created.
package window

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sort"
	"sync"

	"nativebridge/internal/native"
)

var (
	// ErrInvalidConfig is returned for non-positive sizes or an empty title
	ErrInvalidConfig = errors.New("invalid window config")

	// ErrUnknownWindow is returned for destroyed or never issued handles
	ErrUnknownWindow = errors.New("unknown window handle")

	// ErrPixelBuffer is returned when a pixel buffer does not match its size
	ErrPixelBuffer = errors.New("pixel buffer size mismatch")
)

// Handle identifies a window for the lifetime of the process.
type Handle uint32

// InvalidHandle is never issued.
const InvalidHandle Handle = 0

// Config describes a window to create.
type Config struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	Title  string  `json:"title"`
}

// Validate checks that the size is positive and the title is set.
func (c Config) Validate() error {
	if !(c.Width > 0) || !(c.Height > 0) || math.IsInf(float64(c.Width), 0) || math.IsInf(float64(c.Height), 0) {
		return fmt.Errorf("%w: size %vx%v", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidConfig)
	}
	return nil
}

type entry struct {
	win native.Window
}

// Registry maps handles to native windows of one toolkit.
//
// Create, Destroy and ShowAll call into the toolkit and must run on the UI
// thread. The queries are safe from any goroutine.
type Registry struct {
	tk native.Toolkit

	mu      sync.Mutex
	windows map[Handle]*entry
	next    Handle
}

// NewRegistry creates an empty registry on tk.
func NewRegistry(tk native.Toolkit) *Registry {
	return &Registry{
		tk:      tk,
		windows: make(map[Handle]*entry),
	}
}

// Create opens a native window and returns its handle. An invalid config
// allocates nothing.
func (r *Registry) Create(cfg Config) (Handle, error) {
	if err := cfg.Validate(); err != nil {
		return InvalidHandle, err
	}

	win, err := r.tk.CreateWindow(native.WindowOptions{
		Width:  cfg.Width,
		Height: cfg.Height,
		Title:  cfg.Title,
	})
	if err != nil {
		return InvalidHandle, fmt.Errorf("create window: %w", err)
	}

	r.mu.Lock()
	r.next++
	h := r.next
	r.windows[h] = &entry{win: win}
	r.mu.Unlock()

	log.Printf("Window: created %d (%q, %vx%v)", h, cfg.Title, cfg.Width, cfg.Height)
	return h, nil
}

// Destroy closes the window. Unknown handles are reported and leave the
// registry unchanged.
func (r *Registry) Destroy(h Handle) error {
	r.mu.Lock()
	e, ok := r.windows[h]
	delete(r.windows, h)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, h)
	}

	e.win.Close()
	log.Printf("Window: destroyed %d", h)
	return nil
}

// ShouldClose reports whether a close was requested for the window. Unknown
// handles always report true so a host loop over a stale handle terminates.
func (r *Registry) ShouldClose(h Handle) bool {
	e := r.lookup(h)
	if e == nil {
		return true
	}
	return e.win.CloseRequested()
}

// CancelClose clears a pending close request.
func (r *Registry) CancelClose(h Handle) error {
	e := r.lookup(h)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, h)
	}
	e.win.CancelClose()
	return nil
}

// UpdatePixels presents a tightly packed RGBA buffer of width*height*4 bytes.
// The native window copies the frame before returning, so the caller keeps
// ownership of pixels and concurrent updates share no state.
func (r *Registry) UpdatePixels(h Handle, pixels []byte, width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrPixelBuffer, width, height)
	}
	if want := int64(width) * int64(height) * 4; int64(len(pixels)) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPixelBuffer, len(pixels), want)
	}

	e := r.lookup(h)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, h)
	}
	frame := &image.RGBA{
		Pix:    pixels,
		Stride: int(width) * 4,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}
	return e.win.SetPixels(frame)
}

// ShowAll brings the application to the foreground and orders every window
// to the front.
func (r *Registry) ShowAll() error {
	if err := r.tk.Activate(); err != nil {
		return fmt.Errorf("activate application: %w", err)
	}
	for _, h := range r.Handles() {
		if e := r.lookup(h); e != nil {
			e.win.OrderFront()
		}
	}
	return nil
}

// Len returns the number of live windows
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

// Handles returns the live handles in creation order.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.windows))
	for h := range r.windows {
		handles = append(handles, h)
	}
	r.mu.Unlock()
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// Native returns the toolkit window behind h, or nil.
func (r *Registry) Native(h Handle) native.Window {
	if e := r.lookup(h); e != nil {
		return e.win
	}
	return nil
}

// DestroyAll closes every window.
func (r *Registry) DestroyAll() {
	for _, h := range r.Handles() {
		r.Destroy(h)
	}
}

func (r *Registry) lookup(h Handle) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windows[h]
}
