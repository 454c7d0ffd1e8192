// Package viewport holds the process-wide window-space to game-space transform.
//
// A Viewport has a single writer (the host, on resize) and many readers (the
// mouse producer, once per event). Both dimensions live in one atomic word so
// a reader never sees a width from one update and a height from another.
package viewport

import (
	"math"
	"sync/atomic"
)

// DefaultHalfExtent maps a window onto game coordinates in [-10, 10].
const DefaultHalfExtent = 10

// Viewport converts window-local pixel positions into game coordinates:
//
//	gameX = windowX * 2E / width - E
//	gameY = E - windowY * 2E / height
//
// where E is the half extent. The game Y axis points up.
type Viewport struct {
	halfExtent float32
	dims       atomic.Uint64 // width<<32 | height
}

// New creates a viewport with the given half extent. Non-positive values
// fall back to DefaultHalfExtent.
func New(halfExtent float32) *Viewport {
	if halfExtent <= 0 || math.IsNaN(float64(halfExtent)) || math.IsInf(float64(halfExtent), 0) {
		halfExtent = DefaultHalfExtent
	}
	return &Viewport{halfExtent: halfExtent}
}

// HalfExtent returns E.
func (v *Viewport) HalfExtent() float32 {
	return v.halfExtent
}

// SetDimensions stores the window size used by subsequent transforms.
// Non-positive sizes are rejected and the previous size is kept.
func (v *Viewport) SetDimensions(width, height int32) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	v.dims.Store(uint64(uint32(width))<<32 | uint64(uint32(height)))
	return true
}

// Dimensions returns the last stored size, zero if never set.
func (v *Viewport) Dimensions() (width, height int32) {
	d := v.dims.Load()
	return int32(uint32(d >> 32)), int32(uint32(d))
}

// ToGame transforms a window position. Until dimensions are set the game
// position is the origin.
func (v *Viewport) ToGame(windowX, windowY float32) (gameX, gameY float32) {
	w, h := v.Dimensions()
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	e := v.halfExtent
	gameX = windowX*2*e/float32(w) - e
	gameY = e - windowY*2*e/float32(h)
	return gameX, gameY
}
