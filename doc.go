// Package shmtab provides fixed-capacity, lock-free concurrent containers
// meant to live inside a single byte region mapped by multiple cooperating
// processes: a keyed hash table with a per-bucket state machine, a
// single-producer/multi-consumer ring, a sequence-indexed MPMC ring, a
// broadcast ring, and an append-only vector.
//
// None of the containers allocate on their operational fast path and none
// of them use a mutex. The only suspension points are inside Backoff and
// while a Block waits for another process to finish constructing a
// container in place. See Storage for binding a container to a named
// shared-memory region, and the region subpackage for the OS-level
// mapping that Storage sits on top of.
package shmtab
