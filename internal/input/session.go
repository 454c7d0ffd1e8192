package input

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"nativebridge/internal/native"
)

// session is the lifecycle shared by the keyboard and mouse capture sessions:
// one toolkit monitor feeding one exchange.
type session[T any] struct {
	name string
	tk   native.Toolkit
	mask native.EventMask

	mu      sync.Mutex
	monitor native.MonitorID
	running atomic.Bool

	ex exchange[T]
}

func (s *session[T]) start(handle func(native.Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return nil
	}

	s.ex.setOpen(true)
	id, err := s.tk.AddMonitor(s.mask, handle)
	if err != nil {
		s.ex.setOpen(false)
		return fmt.Errorf("start %s monitoring: %w", s.name, err)
	}
	s.monitor = id
	s.running.Store(true)
	log.Printf("Input: %s monitoring started", s.name)
	return nil
}

// stop removes the monitor and discards pending events. It reports whether
// the session was running.
func (s *session[T]) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}

	s.tk.RemoveMonitor(s.monitor)
	s.monitor = 0
	s.running.Store(false)
	s.ex.setOpen(false)
	log.Printf("Input: %s monitoring stopped", s.name)
	return true
}

func (s *session[T]) poll(out *Batch[T]) bool {
	if out == nil || !s.running.Load() {
		return false
	}
	return s.ex.swap(out)
}

func (s *session[T]) state() State {
	if s.running.Load() {
		return Running
	}
	return Stopped
}
