// Package region abstracts the operating-system side of shared memory
// away from the container logic in the parent package: given a name and
// a size, obtain a writable memory region shared across processes and
// byte-identical through every mapping, plus whether this call created
// it. Storage sits on top of a Provider; the containers in the parent
// package never talk to the OS directly.
package region

import "errors"

// ErrAlreadyClosed is returned by Close when it is handed an empty
// (nil or zero-length) region. Providers do not track which regions
// they have already released, and Remove never returns it.
var ErrAlreadyClosed = errors.New("region: already closed")

// Provider obtains and releases named, process-shared byte regions.
// Implementations must guarantee that two Open calls for the same name
// (from the same or different processes) observe the same underlying
// bytes: a write through one mapping is visible through the other.
type Provider interface {
	// Open returns a region of exactly size bytes for name. If no such
	// region existed yet, the caller becomes its owner (created=true)
	// and the returned bytes are zero-filled. If it already existed,
	// created is false and size is ignored — the region keeps its
	// original size, which the caller should treat as authoritative
	// (Storage compares it against the size it expected).
	Open(name string, size int64) (data []byte, created bool, err error)

	// Close releases this process's mapping of data without affecting
	// other processes or removing the name.
	Close(data []byte) error

	// Remove deletes the named region so the next Open starts fresh.
	// Callers are responsible for coordinating that at most one process
	// calls Remove, and only once every process has stopped using the
	// region — Provider does not reference-count across processes.
	Remove(name string) error
}
