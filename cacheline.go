package shmtab

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is used throughout this package to pad shared structures
// and prevent false sharing between buckets, ring cells, and the Block
// header living on adjacent cache lines. Computed the way the teacher
// package derives it, via golang.org/x/sys/cpu rather than a hardcoded
// constant that would be wrong on non-x86 targets.
const CacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})

// padFor returns the number of padding bytes needed to round size up to
// the next multiple of CacheLineSize.
func padFor(size uintptr) uintptr {
	rem := size % CacheLineSize
	if rem == 0 {
		return 0
	}
	return CacheLineSize - rem
}

// alignUp rounds size up to the next multiple of CacheLineSize.
func alignUp(size uintptr) uintptr {
	return size + padFor(size)
}
