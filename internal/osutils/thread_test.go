package osutils

import (
	"runtime"
	"testing"
)

func TestThreadIDStableWhileLocked(t *testing.T) {
	if !HasThreadID() {
		t.Skip("thread ids not available on " + runtime.GOOS)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	first := ThreadID()
	for i := 0; i < 10; i++ {
		runtime.Gosched()
		if id := ThreadID(); id != first {
			t.Fatalf("Expected thread id %d while locked, got %d", first, id)
		}
	}
}

func TestThreadIDDiffersAcrossLockedGoroutines(t *testing.T) {
	if !HasThreadID() {
		t.Skip("thread ids not available on " + runtime.GOOS)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	mine := ThreadID()

	other := make(chan uint64)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		other <- ThreadID()
	}()
	if id := <-other; id == mine {
		t.Errorf("Expected a different thread id, got %d for both", id)
	}
}
