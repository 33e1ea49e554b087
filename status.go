package shmtab

// Status is the result of any container operation. It is a plain
// comparable value, never an out-of-band error: callers branch on it the
// same way regardless of whether the operation touched a bucket, a ring
// slot, or an append-vector index.
type Status int32

const (
	// StatusSuccess indicates normal completion.
	StatusSuccess Status = iota
	// StatusError indicates a visitor panicked; the panic was recovered
	// and translated here.
	StatusError
	// StatusException is reserved for cross-process visitor failure
	// reporting; it carries the same meaning as StatusError today.
	StatusException
	// StatusNotFound indicates the key was absent, or a read-only scan
	// reached an empty slot before finding it.
	StatusNotFound
	// StatusAlreadyExists is reserved; the hash table never produces it
	// since Visit merges create-or-update into one operation.
	StatusAlreadyExists
	// StatusTimeout indicates a Backoff deadline was exceeded while
	// waiting on a bucket, ring slot, or Block transition.
	StatusTimeout
	// StatusNotReady is reserved for callers that observe a Block before
	// it publishes its embedded container.
	StatusNotReady
	// StatusOutOfMemory is reserved; no container in this package
	// allocates on its operational path.
	StatusOutOfMemory
	// StatusInvalidArgument indicates a bad bucket index to a direct
	// operation such as VisitBucket.
	StatusInvalidArgument
	// StatusCrash is reserved for external supervisors.
	StatusCrash
	// StatusUnknown is the catch-all for status codes from a future
	// version of the on-disk protocol.
	StatusUnknown
)

// String renders the status the way it appears in logs and test failures.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	case StatusException:
		return "EXCEPTION"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusAlreadyExists:
		return "ALREADY_EXISTS"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusNotReady:
		return "NOT_READY"
	case StatusOutOfMemory:
		return "OUT_OF_MEMORY"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusCrash:
		return "CRASH"
	default:
		return "UNKNOWN"
	}
}

// OK reports whether s is StatusSuccess, so call sites can branch
// uniformly (`if status := t.Visit(...); !status.OK() { ... }`).
func (s Status) OK() bool {
	return s == StatusSuccess
}
