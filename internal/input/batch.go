package input

import "sync"

// BatchCapacity is the number of events a batch can hold.
const BatchCapacity = 8

// Batch is a bounded, ordered snapshot of the events accumulated since the
// previous poll.
//
// When more than BatchCapacity events arrive in one interval the first
// BatchCapacity are kept, later ones are dropped, Overflow is set and Dropped
// counts them.
type Batch[T any] struct {
	Events   [BatchCapacity]T
	Count    int
	Overflow bool
	Dropped  int
}

// KeyBatch is a batch of keyboard events
type KeyBatch = Batch[KeyEvent]

// MouseBatch is a batch of mouse events
type MouseBatch = Batch[MouseEvent]

// Slice returns the filled part of the batch.
func (b *Batch[T]) Slice() []T {
	return b.Events[:b.Count]
}

// Reset empties the batch.
func (b *Batch[T]) Reset() {
	var zero T
	for i := 0; i < b.Count; i++ {
		b.Events[i] = zero
	}
	b.Count = 0
	b.Overflow = false
	b.Dropped = 0
}

func (b *Batch[T]) push(ev T) bool {
	if b.Count == BatchCapacity {
		b.Overflow = true
		b.Dropped++
		return false
	}
	b.Events[b.Count] = ev
	b.Count++
	return true
}

// exchange is a double buffer between one producer and the consumer.
//
// The producer appends to the active buffer under mu. swap flips the active
// index under mu, so from then on the producer fills the other, freshly reset
// buffer; the sealed buffer is copied out while holding only readMu, which
// serializes consumers. No event is ever visible in two batches.
type exchange[T any] struct {
	mu     sync.Mutex
	open   bool
	active int
	bufs   [2]Batch[T]

	readMu sync.Mutex
}

// setOpen enables or disables appends and discards anything pending.
func (x *exchange[T]) setOpen(open bool) {
	x.readMu.Lock()
	defer x.readMu.Unlock()
	x.mu.Lock()
	defer x.mu.Unlock()
	x.open = open
	x.bufs[0].Reset()
	x.bufs[1].Reset()
}

// append adds ev to the active batch. It reports false when the exchange is
// closed or the batch is full.
func (x *exchange[T]) append(ev T) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.open {
		return false
	}
	return x.bufs[x.active].push(ev)
}

// appendWith runs fn under the producer lock and appends its event when fn
// reports ok. fn must not block.
func (x *exchange[T]) appendWith(fn func() (T, bool)) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.open {
		return false
	}
	ev, ok := fn()
	if !ok {
		return false
	}
	return x.bufs[x.active].push(ev)
}

// swap seals the active batch into out and installs a fresh one. It reports
// false, leaving out untouched, when the exchange is closed.
func (x *exchange[T]) swap(out *Batch[T]) bool {
	x.readMu.Lock()
	defer x.readMu.Unlock()

	x.mu.Lock()
	if !x.open {
		x.mu.Unlock()
		return false
	}
	sealed := x.active
	x.active ^= 1
	x.bufs[x.active].Reset()
	x.mu.Unlock()

	*out = x.bufs[sealed]
	return true
}
