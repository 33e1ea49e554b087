package shmtab

import (
	"errors"
	"math/rand/v2"
	"time"
	"unsafe"
)

// VisitMode selects whether Visit may create a missing key.
type VisitMode int

const (
	// AccessExist never creates; a miss returns StatusNotFound.
	AccessExist VisitMode = iota
	// CreateIfMiss inserts a new, visitor-initialized entry on a miss.
	CreateIfMiss
)

// Visitor is called with exclusive access to a bucket's value while Visit
// holds Accessing (existing key) or Inserting (new key). isNew tells the
// visitor which case it is in. Returning anything other than
// StatusSuccess aborts the operation with that status; a panic inside
// visitor is recovered and reported as StatusError.
type Visitor[V any] func(bucketIndex int, value *V, isNew bool) Status

// Void adapts a visitor that never fails into the Visitor shape Visit
// expects, for the common case described in the design as "a void
// visitor is treated as success."
func Void[V any](fn func(bucketIndex int, value *V, isNew bool)) Visitor[V] {
	return func(bucketIndex int, value *V, isNew bool) Status {
		fn(bucketIndex, value, isNew)
		return StatusSuccess
	}
}

// TravelVisitor is called with exclusive access to a Ready bucket during
// Travel.
type TravelVisitor[V any] func(bucketIndex int, value *V) Status

// AuditVisitor is called once per slot by TravelBucket, regardless of
// state, with no synchronization at all.
type AuditVisitor[K, V any] func(bucketIndex int, state BucketState, key K, value V)

// HashTable is a fixed-capacity, closed-addressing hash table whose
// buckets carry the 4-state machine described on Bucket. H and E are
// stateless Hasher/KeyEqual implementations selected at compile time
// (see hash.go); R selects the Rollback behavior (see rollback.go).
//
// A HashTable value is only meaningful after NewHashTable or after being
// bound to a shared region through HashTableSpec — the zero value has a
// nil base and capacity 0, matching "zero bytes is a valid empty
// container" for the case where a HashTable lives directly in a Block
// without an explicit constructor call, but one of those binds must
// still run once to record capacity and seed before any Visit.
type HashTable[K comparable, V any, H Hasher[K], E KeyEqual[K], R Rollback] struct {
	header   *tableHeader
	base     unsafe.Pointer
	stride   uintptr
	capacity int
}

type tableHeader struct {
	capacity uint64
	seed     uint64
}

// ErrInvalidCapacity is returned when a requested capacity is not a
// positive integer, per the compile-time constraint "Hash-table capacity
// must be >= 1."
var ErrInvalidCapacity = errors.New("shmtab: capacity must be >= 1")

// bucketStride returns the cache-line-rounded byte distance between
// consecutive buckets of a HashTable[K,V,...], satisfying the compile-
// time constraint that bucket size be a multiple of the cache-line size.
func bucketStride[K, V any]() uintptr {
	var b Bucket[K, V]
	return alignUp(unsafe.Sizeof(b))
}

// hashTableFootprint returns the number of body bytes (excluding the
// Block header) a HashTable of the given capacity occupies: a cache-
// line-rounded tableHeader followed by capacity buckets at their
// cache-line stride.
func hashTableFootprint[K, V any](capacity int) uintptr {
	headerSize := alignUp(unsafe.Sizeof(tableHeader{}))
	return headerSize + uintptr(capacity)*bucketStride[K, V]()
}

func bindHashTable[K comparable, V any, H Hasher[K], E KeyEqual[K], R Rollback](
	body []byte, capacity int, seed uint64, owner bool,
) *HashTable[K, V, H, E, R] {
	headerSize := alignUp(unsafe.Sizeof(tableHeader{}))
	header := (*tableHeader)(unsafe.Pointer(&body[0]))
	if owner {
		header.capacity = uint64(capacity)
		header.seed = seed
	}
	base := unsafe.Pointer(&body[headerSize])
	return &HashTable[K, V, H, E, R]{
		header:   header,
		base:     base,
		stride:   bucketStride[K, V](),
		capacity: int(header.capacity),
	}
}

// NewHashTable allocates a HashTable usable within a single process (no
// shared region involved). Use HashTableSpec to bind one inside a
// Storage-managed shared region instead.
func NewHashTable[K comparable, V any, H Hasher[K], E KeyEqual[K], R Rollback](capacity int) (*HashTable[K, V, H, E, R], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	body := make([]byte, hashTableFootprint[K, V](capacity))
	return bindHashTable[K, V, H, E, R](body, capacity, rand.Uint64(), true), nil
}

// HashTableSpec describes a HashTable of the given capacity for use with
// Storage: its footprint, and how the owning process builds it versus
// how every other attaching process binds a view over the already-built
// bytes.
func HashTableSpec[K comparable, V any, H Hasher[K], E KeyEqual[K], R Rollback](capacity int) (ContainerSpec[*HashTable[K, V, H, E, R]], error) {
	if capacity < 1 {
		return ContainerSpec[*HashTable[K, V, H, E, R]]{}, ErrInvalidCapacity
	}
	seed := rand.Uint64()
	return ContainerSpec[*HashTable[K, V, H, E, R]]{
		Size: hashTableFootprint[K, V](capacity),
		Build: func(body []byte) *HashTable[K, V, H, E, R] {
			return bindHashTable[K, V, H, E, R](body, capacity, seed, true)
		},
		Attach: func(body []byte) *HashTable[K, V, H, E, R] {
			return bindHashTable[K, V, H, E, R](body, capacity, 0, false)
		},
	}, nil
}

func (t *HashTable[K, V, H, E, R]) bucketAt(index int) *Bucket[K, V] {
	return (*Bucket[K, V])(unsafe.Add(t.base, uintptr(index)*t.stride))
}

// Capacity returns the table's fixed bucket count.
func (t *HashTable[K, V, H, E, R]) Capacity() int { return t.capacity }

func (t *HashTable[K, V, H, E, R]) seed() uint64 { return t.header.seed }

func runVisitor[V any](fn func() Status) (status Status) {
	defer func() {
		if recover() != nil {
			status = StatusError
		}
	}()
	return fn()
}

// Visit probes for key starting at hash(key) mod Capacity, following the
// state machine documented on Bucket and BucketState. See the design's
// component notes for the full per-state dispatch; in short: a Ready
// match hands the visitor exclusive access via Accessing, an Empty slot
// under CreateIfMiss hands the visitor a fresh zero value via Inserting,
// and Inserting/Accessing on the probed slot means "someone else is
// there right now" — wait via Backoff or give up with StatusTimeout.
func (t *HashTable[K, V, H, E, R]) Visit(key K, mode VisitMode, visitor Visitor[V], timeout time.Duration) Status {
	if t.capacity == 0 {
		return StatusNotFound
	}
	var hasher H
	var eq E
	var rb R

	start := int(hasher.Hash(key, t.seed()) % uint64(t.capacity))
	backoff := NewBackoff(timeout)

probeLoop:
	for probe := 0; probe < t.capacity; probe++ {
		idx := (start + probe) % t.capacity
		b := t.bucketAt(idx)

		for {
			state := BucketState(b.state.Load())
			switch state {
			case BucketReady:
				if !eq.Equal(b.key, key) {
					continue probeLoop
				}
				if !b.state.CompareAndSwap(uint32(BucketReady), uint32(BucketAccessing)) {
					if !backoff.Step() {
						return StatusTimeout
					}
					continue
				}
				var snapshot V
				if rb.enabled() {
					snapshot = b.value
				}
				status := runVisitor[V](func() Status { return visitor(idx, &b.value, false) })
				if rb.enabled() && status != StatusSuccess {
					b.value = snapshot
				}
				b.state.Store(uint32(BucketReady))
				return status

			case BucketEmpty:
				if mode == AccessExist {
					return StatusNotFound
				}
				if !b.state.CompareAndSwap(uint32(BucketEmpty), uint32(BucketInserting)) {
					if !backoff.Step() {
						return StatusTimeout
					}
					continue
				}
				var zero V
				b.value = zero
				status := runVisitor[V](func() Status { return visitor(idx, &b.value, true) })
				if status != StatusSuccess {
					// Always revert to Empty on a failed insert,
					// regardless of Rollback: preserves "Ready implies
					// a valid insertion" even when Rollback is off.
					b.state.Store(uint32(BucketEmpty))
					return status
				}
				b.key = key
				b.state.Store(uint32(BucketReady))
				return StatusSuccess

			case BucketInserting, BucketAccessing:
				if !backoff.Step() {
					return StatusTimeout
				}
				continue
			}
		}
	}
	return StatusNotFound
}

// Travel visits every Ready bucket in index order, acquiring Accessing
// on each before calling visitor. An Empty bucket only breaks the wait
// for that index — the scan continues to the next index, since linear
// probing can leave Empty slots between occupied ones. A visitor
// returning non-StatusSuccess aborts the scan with that status.
func (t *HashTable[K, V, H, E, R]) Travel(visitor TravelVisitor[V], timeout time.Duration) Status {
	backoff := NewBackoff(timeout)
	for idx := 0; idx < t.capacity; idx++ {
		b := t.bucketAt(idx)
		for {
			state := BucketState(b.state.Load())
			switch state {
			case BucketReady:
				if !b.state.CompareAndSwap(uint32(BucketReady), uint32(BucketAccessing)) {
					if !backoff.Step() {
						return StatusTimeout
					}
					continue
				}
				status := runVisitor[V](func() Status { return visitor(idx, &b.value) })
				b.state.Store(uint32(BucketReady))
				if status != StatusSuccess {
					return status
				}
			case BucketInserting, BucketAccessing:
				if !backoff.Step() {
					return StatusTimeout
				}
				continue
			case BucketEmpty:
				// terminates the wait for this index only.
			}
			break
		}
	}
	return StatusSuccess
}

// VisitBucket gives a visitor direct, single-attempt access to bucket
// index — no probing, no waiting. It is meant for callers that already
// hold some out-of-band guarantee of exclusivity (an audit right after
// joining, for instance): a bucket that is not immediately Ready, or
// whose Ready-to-Accessing CAS loses a race, is reported as
// StatusNotFound rather than retried.
func (t *HashTable[K, V, H, E, R]) VisitBucket(index int, visitor Visitor[V]) Status {
	if index < 0 || index >= t.capacity {
		return StatusInvalidArgument
	}
	var rb R
	b := t.bucketAt(index)
	if BucketState(b.state.Load()) != BucketReady {
		return StatusNotFound
	}
	if !b.state.CompareAndSwap(uint32(BucketReady), uint32(BucketAccessing)) {
		return StatusNotFound
	}
	var snapshot V
	if rb.enabled() {
		snapshot = b.value
	}
	status := runVisitor[V](func() Status { return visitor(index, &b.value, false) })
	if rb.enabled() && status != StatusSuccess {
		b.value = snapshot
	}
	b.state.Store(uint32(BucketReady))
	return status
}

// TravelBucket enumerates every slot regardless of state with no
// synchronization whatsoever. It is only safe when the caller has
// independently ensured no other thread is touching the table — a
// single-threaded post-mortem audit, not a concurrent operation.
func (t *HashTable[K, V, H, E, R]) TravelBucket(visitor AuditVisitor[K, V]) {
	for idx := 0; idx < t.capacity; idx++ {
		b := t.bucketAt(idx)
		visitor(idx, BucketState(b.state.Load()), b.key, b.value)
	}
}
