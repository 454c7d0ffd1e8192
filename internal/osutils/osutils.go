// Package osutils exposes the operating system facts the application shell
// needs and the Go runtime does not provide.
package osutils

// HasThreadID reports whether ThreadID identifies OS threads on this
// platform. Where it does not, ThreadID returns 0.
func HasThreadID() bool {
	return ThreadID() != 0
}
