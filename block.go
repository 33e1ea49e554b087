package shmtab

import (
	"sync/atomic"
	"unsafe"
)

// blockState values, matching the region layout in the design: the
// first 4 bytes of any Block-backed region, little-endian.
const (
	blockUninit   uint32 = 0
	blockBuilding uint32 = 1
	blockReady    uint32 = 2
)

// blockHeaderSize is the Block header's footprint, rounded up to
// CacheLineSize so the embedded container's own fields never share a
// cache line with the state atomic that guards them.
var blockHeaderSize = alignUp(unsafe.Sizeof(uint32(0)))

// ContainerSpec describes how a container of type T is laid out inside a
// Block: how many body bytes it needs (Size, excluding the Block
// header), how the constructing process builds a view over freshly
// zeroed bytes and publishes any header fields the container itself
// needs (Build), and how every other attaching process derives the same
// view once Block has observed the owner's construction complete
// (Attach). Build and Attach must agree on layout; they differ only in
// whether they write or merely read the container's own header fields
// (capacity, seed, consumer count, ...), matching how Storage's owner
// vs. attacher paths differ around Block itself.
type ContainerSpec[T any] struct {
	Size   uintptr
	Build  func(body []byte) T
	Attach func(body []byte) T
}

// Block is a one-shot in-place construction guard over a raw byte
// region: the first process to reach it constructs the embedded
// container and publishes blockReady; every other process — in this one
// or any other attached to the same region — waits for that publication
// instead of racing to construct it themselves.
//
// Block's own zero value is never used directly; it is always produced
// by CreateBlock or OpenBlock over a region that Storage (or a caller
// wiring up a region.Provider by hand) has already obtained.
type Block[T any] struct {
	state  *atomic.Uint32
	region []byte
	value  T
}

// CreateBlock claims region for the calling process, which must be the
// process that just obtained a freshly zeroed region (region.Provider's
// created=true case). It runs build once and publishes blockReady.
func CreateBlock[T any](region []byte, build func(body []byte) T) (*Block[T], Status) {
	state := blockStatePtr(region)
	if !state.CompareAndSwap(blockUninit, blockBuilding) {
		// Only possible if region wasn't actually fresh — a caller bug,
		// not a race another process could win, since the caller is
		// asserting ownership.
		return nil, StatusError
	}
	body := region[blockHeaderSize:]
	value := build(body)
	state.Store(blockReady)
	return &Block[T]{state: state, region: region, value: value}, StatusSuccess
}

// OpenBlock waits for another process's CreateBlock to publish
// blockReady, then binds a process-local view over the now-stable body
// bytes via attach. It returns StatusTimeout if backoff's deadline
// passes first.
func OpenBlock[T any](region []byte, backoff *Backoff, attach func(body []byte) T) (*Block[T], Status) {
	state := blockStatePtr(region)
	for {
		if state.Load() == blockReady {
			body := region[blockHeaderSize:]
			return &Block[T]{state: state, region: region, value: attach(body)}, StatusSuccess
		}
		if !backoff.Step() {
			return nil, StatusTimeout
		}
	}
}

// Value returns the embedded, fully-constructed container.
func (b *Block[T]) Value() T { return b.value }

func blockStatePtr(region []byte) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&region[0]))
}

// BlockFootprint returns the total region size (in bytes) a Block
// wrapping a container of the given body size occupies, including the
// header.
func BlockFootprint(bodySize uintptr) uintptr {
	return blockHeaderSize + bodySize
}
