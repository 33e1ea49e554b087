package shmtab

// Rollback selects, at compile time, whether a Visit that fails partway
// through undoes its writes to the bucket. It is instantiated as a
// zero-size type parameter (RollbackOn or RollbackOff), the same
// stateless-marker pattern used for Hasher and KeyEqual, so the choice
// costs nothing at run time and cannot be flipped by a hostile or buggy
// process sharing the region — it is baked into the Go type, not a byte
// in shared memory.
type Rollback interface {
	enabled() bool
}

// RollbackOn snapshots a bucket's value before a Visit's visitor runs and
// restores it if the visitor does not return StatusSuccess. On the
// insert path a failed visitor always reverts the bucket to Empty
// regardless of this setting — see RollbackOff for why insert has no
// "leave the garbage value" option.
type RollbackOn struct{}

func (RollbackOn) enabled() bool { return true }

// RollbackOff leaves a failing visitor's partial writes to the bucket's
// value in place on the update path. The Ready invariant (the bucket
// holds a valid key) still holds either way; only the value may be
// stale or partially written.
type RollbackOff struct{}

func (RollbackOff) enabled() bool { return false }
