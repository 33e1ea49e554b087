package shmtab

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// ErrCopyBatchPanic is returned by CopyBatch when one of its worker
// goroutines panics while writing its chunk.
var ErrCopyBatchPanic = errors.New("shmtab: panic during CopyBatch write")

// AppendVector is a fixed-capacity, append-only array: any number of
// concurrent appenders across any number of processes reserve disjoint
// index ranges via an atomic size counter, then write their own slots
// without contending with each other.
type AppendVector[T any] struct {
	header   *vectorHeader
	base     unsafe.Pointer
	stride   uintptr
	capacity int
}

type vectorHeader struct {
	size     atomic.Uint64
	capacity uint64
}

// AppendResult is returned by Allocate: the first index of the reserved
// range, and whether the reservation succeeded.
type AppendResult struct {
	Index int
	OK    bool
}

func vectorElemStride[T any]() uintptr {
	var v T
	return alignUp(unsafe.Sizeof(v))
}

func vectorFootprint[T any](capacity int) uintptr {
	headerSize := alignUp(unsafe.Sizeof(vectorHeader{}))
	return headerSize + uintptr(capacity)*vectorElemStride[T]()
}

func bindAppendVector[T any](body []byte, capacity int, owner bool) *AppendVector[T] {
	headerSize := alignUp(unsafe.Sizeof(vectorHeader{}))
	header := (*vectorHeader)(unsafe.Pointer(&body[0]))
	if owner {
		header.capacity = uint64(capacity)
	}
	base := unsafe.Pointer(&body[headerSize])
	return &AppendVector[T]{header: header, base: base, stride: vectorElemStride[T](), capacity: int(header.capacity)}
}

// AppendVectorSpec describes an AppendVector[T] of the given capacity
// for use with Storage.
func AppendVectorSpec[T any](capacity int) ContainerSpec[*AppendVector[T]] {
	return ContainerSpec[*AppendVector[T]]{
		Size:   vectorFootprint[T](capacity),
		Build:  func(body []byte) *AppendVector[T] { return bindAppendVector[T](body, capacity, true) },
		Attach: func(body []byte) *AppendVector[T] { return bindAppendVector[T](body, capacity, false) },
	}
}

// NewAppendVector allocates an AppendVector usable within a single
// process.
func NewAppendVector[T any](capacity int) *AppendVector[T] {
	body := make([]byte, vectorFootprint[T](capacity))
	return bindAppendVector[T](body, capacity, true)
}

func (v *AppendVector[T]) elemAt(index int) *T {
	return (*T)(unsafe.Add(v.base, uintptr(index)*v.stride))
}

// Allocate reserves n consecutive indices, returning the first one. It
// fails without blocking if the reservation would exceed capacity.
func (v *AppendVector[T]) Allocate(n int) AppendResult {
	for {
		size := v.header.size.Load()
		newSize := size + uint64(n)
		if newSize > uint64(v.capacity) {
			return AppendResult{OK: false}
		}
		if v.header.size.CompareAndSwap(size, newSize) {
			return AppendResult{Index: int(size), OK: true}
		}
	}
}

// PushBack reserves one index and stores value there, returning the
// index or StatusOutOfMemory-equivalent failure via the second return.
func (v *AppendVector[T]) PushBack(value T) (int, bool) {
	res := v.Allocate(1)
	if !res.OK {
		return 0, false
	}
	*v.elemAt(res.Index) = value
	return res.Index, true
}

// At returns the value at index, bounds-checked against both capacity
// and the current published size. ok is false for an out-of-range or
// not-yet-published index.
func (v *AppendVector[T]) At(index int) (T, bool) {
	if index < 0 || index >= v.capacity || uint64(index) >= v.header.size.Load() {
		var zero T
		return zero, false
	}
	return *v.elemAt(index), true
}

// Size returns a snapshot of the number of published elements.
func (v *AppendVector[T]) Size() int { return int(v.header.size.Load()) }

// Capacity returns the vector's fixed element capacity.
func (v *AppendVector[T]) Capacity() int { return v.capacity }

// Range calls fn for every index in [0, size) observed at the moment
// Range is called, stopping early if fn returns false.
func (v *AppendVector[T]) Range(fn func(index int, value T) bool) {
	size := int(v.header.size.Load())
	for i := 0; i < size; i++ {
		if !fn(i, *v.elemAt(i)) {
			return
		}
	}
}

// Snapshot copies every element in [0, size), observed at the moment of
// the call, into a fresh slice safe to use after this process detaches
// from the underlying region.
func (v *AppendVector[T]) Snapshot() []T {
	size := int(v.header.size.Load())
	out := make([]T, size)
	for i := 0; i < size; i++ {
		out[i] = *v.elemAt(i)
	}
	return out
}

// CopyBatch reserves len(values) consecutive indices and stores each
// value at its slot concurrently, fanning the writes out across workers
// goroutines with errgroup so a panicking writer's error (recovered) is
// reported instead of silently dropped. It returns the first reserved
// index, matching Allocate.
func (v *AppendVector[T]) CopyBatch(values []T, workers int) (int, bool, error) {
	res := v.Allocate(len(values))
	if !res.OK {
		return 0, false, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(values) {
		workers = len(values)
	}

	var g errgroup.Group
	chunk := (len(values) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(values) {
			hi = len(values)
		}
		if lo >= hi {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = ErrCopyBatchPanic
				}
			}()
			for i := lo; i < hi; i++ {
				*v.elemAt(res.Index + i) = values[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res.Index, true, err
	}
	return res.Index, true, nil
}
