package shmtab

// TableStats is a read-only snapshot of a HashTable's bucket occupancy,
// narrowed from the teacher's own resize-aware Stats() to this table's
// fixed-capacity, no-resize semantics: there is no growth threshold to
// report, only the current split between the four bucket states.
type TableStats struct {
	Capacity   int
	Empty      int
	Inserting  int
	Ready      int
	Accessing  int
	LoadFactor float64
}

// Stats performs a single-threaded audit of every bucket via
// TravelBucket, the same "no synchronization, caller guarantees
// exclusivity" contract TravelBucket itself documents. It is meant for
// diagnostics and the shmtabctl inspector, not for use alongside
// concurrent Visit/Travel calls.
func (t *HashTable[K, V, H, E, R]) Stats() TableStats {
	stats := TableStats{Capacity: t.capacity}
	t.TravelBucket(func(_ int, state BucketState, _ K, _ V) {
		switch state {
		case BucketEmpty:
			stats.Empty++
		case BucketInserting:
			stats.Inserting++
		case BucketReady:
			stats.Ready++
		case BucketAccessing:
			stats.Accessing++
		}
	})
	if stats.Capacity > 0 {
		stats.LoadFactor = float64(stats.Ready+stats.Accessing) / float64(stats.Capacity)
	}
	return stats
}
