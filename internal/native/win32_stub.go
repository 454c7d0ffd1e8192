//go:build !windows

package native

import (
	"fmt"
	"runtime"
)

// Stub implementation for non-Windows platforms

// NewWin32 reports that the win32 toolkit is unavailable (stub)
func NewWin32() (Toolkit, error) {
	return nil, fmt.Errorf("%w: win32 toolkit not supported on %s", ErrUnavailable, runtime.GOOS)
}
