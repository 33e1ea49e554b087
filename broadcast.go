package shmtab

import (
	"sync/atomic"
	"unsafe"
)

// broadcastCell holds one pushed item until every registered consumer
// has taken it. seq is the lap-stamped position the cell currently
// publishes; remain counts consumers that have not yet claimed it.
type broadcastCell[T any] struct {
	seq    atomic.Uint64
	remain atomic.Uint32
	data   T
}

// BroadcastRing delivers every pushed item to every one of K registered
// consumers, in push order. Unlike Ring and MPMCRing, an item is not
// removed from a cell until all K consumers have claimed it — a slow
// consumer holds the cell (and, transitively, the producer once the
// ring wraps) until it catches up.
type BroadcastRing[T any] struct {
	header *broadcastHeader
	cells  unsafe.Pointer
	mask   uint64
	stride uintptr
	k      uint32
}

type broadcastHeader struct {
	tail         atomic.Uint64
	consumers    uint32
	nextConsumer atomic.Uint32
}

func broadcastCellStride[T any]() uintptr {
	var c broadcastCell[T]
	return alignUp(unsafe.Sizeof(c))
}

func broadcastFootprint[T any](capacity int) uintptr {
	headerSize := alignUp(unsafe.Sizeof(broadcastHeader{}))
	return headerSize + uintptr(capacity)*broadcastCellStride[T]()
}

func bindBroadcastRing[T any](body []byte, capacity int, consumers uint32, owner bool) *BroadcastRing[T] {
	headerSize := alignUp(unsafe.Sizeof(broadcastHeader{}))
	header := (*broadcastHeader)(unsafe.Pointer(&body[0]))
	cells := unsafe.Pointer(&body[headerSize])
	stride := broadcastCellStride[T]()
	if owner {
		header.consumers = consumers
		for i := 0; i < capacity; i++ {
			cell := (*broadcastCell[T])(unsafe.Add(cells, uintptr(i)*stride))
			cell.seq.Store(uint64(i) - uint64(capacity))
		}
	}
	return &BroadcastRing[T]{header: header, cells: cells, mask: uint64(capacity - 1), stride: stride, k: header.consumers}
}

// BroadcastRingSpec describes a BroadcastRing[T] of the given capacity,
// initialized for exactly consumers registered readers.
func BroadcastRingSpec[T any](capacity int, consumers uint32) (ContainerSpec[*BroadcastRing[T]], error) {
	if !isPowerOfTwo(capacity) {
		return ContainerSpec[*BroadcastRing[T]]{}, ErrInvalidRingCapacity
	}
	return ContainerSpec[*BroadcastRing[T]]{
		Size: broadcastFootprint[T](capacity),
		Build: func(body []byte) *BroadcastRing[T] {
			return bindBroadcastRing[T](body, capacity, consumers, true)
		},
		Attach: func(body []byte) *BroadcastRing[T] {
			return bindBroadcastRing[T](body, capacity, 0, false)
		},
	}, nil
}

// NewBroadcastRing allocates a BroadcastRing usable within a single
// process.
func NewBroadcastRing[T any](capacity int, consumers uint32) (*BroadcastRing[T], error) {
	if !isPowerOfTwo(capacity) {
		return nil, ErrInvalidRingCapacity
	}
	body := make([]byte, broadcastFootprint[T](capacity))
	return bindBroadcastRing[T](body, capacity, consumers, true), nil
}

func (r *BroadcastRing[T]) cellAt(pos uint64) *broadcastCell[T] {
	return (*broadcastCell[T])(unsafe.Add(r.cells, uintptr(pos&r.mask)*r.stride))
}

// Consumers returns the registered consumer count K the ring was built
// with.
func (r *BroadcastRing[T]) Consumers() int { return int(r.k) }

// Push claims the next slot, waits (via backoff) until every consumer
// has drained it from its previous lap, writes v, and publishes it.
// Only one goroutine across every attached process may call Push on a
// given BroadcastRing at a time.
func (r *BroadcastRing[T]) Push(v T, backoff *Backoff) Status {
	pos := r.header.tail.Load()
	cell := r.cellAt(pos)
	for cell.remain.Load() != 0 {
		if !backoff.Step() {
			return StatusTimeout
		}
	}
	cell.data = v
	cell.seq.Store(pos)
	cell.remain.Store(r.k)
	r.header.tail.Store(pos + 1)
	return StatusSuccess
}

// BroadcastCursor tracks one registered consumer's position in a
// BroadcastRing. Consumers must be created via NewConsumer rather than
// zero-valued, so each cursor is bound to its ring and starts at the
// ring's current tail. NewConsumer does not count registrations: K is
// fixed when the ring is built, and creating more or fewer than K
// cursors is not detected.
type BroadcastCursor[T any] struct {
	ring   *BroadcastRing[T]
	cursor uint64
}

// NewConsumer registers a new reader of r, starting at the oldest
// position not yet pushed.
func (r *BroadcastRing[T]) NewConsumer() *BroadcastCursor[T] {
	return &BroadcastCursor[T]{ring: r, cursor: r.header.tail.Load()}
}

// Pop returns the next item this consumer has not yet claimed, or false
// if the ring has not published one yet.
func (c *BroadcastCursor[T]) Pop() (T, bool) {
	cell := c.ring.cellAt(c.cursor)
	if cell.seq.Load() != c.cursor || cell.remain.Load() == 0 {
		var zero T
		return zero, false
	}
	v := cell.data
	cell.remain.Add(^uint32(0))
	c.cursor++
	return v, true
}

// PopWait blocks, via backoff, until an item is available or the
// deadline expires.
func (c *BroadcastCursor[T]) PopWait(backoff *Backoff) (T, Status) {
	for {
		if v, ok := c.Pop(); ok {
			return v, StatusSuccess
		}
		if !backoff.Step() {
			var zero T
			return zero, StatusTimeout
		}
	}
}
