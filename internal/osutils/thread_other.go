//go:build !linux && !windows

package osutils

// ThreadID is not available on this platform
func ThreadID() uint64 {
	return 0
}
