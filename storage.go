package shmtab

import (
	"fmt"
	"sync"
	"time"

	"github.com/dstroots/shmtab/region"
)

// storageOptions collects Storage's functional options, following the
// With-prefixed option pattern the teacher applies to its own
// constructors.
type storageOptions struct {
	provider region.Provider
	timeout  time.Duration
}

// StorageOption configures a Storage at construction time.
type StorageOption func(*storageOptions)

// WithRegionProvider selects the region.Provider a Storage opens its
// named region through. The default is a package-level POSIXProvider,
// so most callers never need this option outside of tests, where
// WithRegionProvider(region.NewMemoryProvider()) avoids touching the
// filesystem.
func WithRegionProvider(p region.Provider) StorageOption {
	return func(o *storageOptions) { o.provider = p }
}

// WithTimeout overrides DefaultTimeout for the Backoff Storage uses
// while waiting for another process's Build to publish blockReady.
func WithTimeout(d time.Duration) StorageOption {
	return func(o *storageOptions) { o.timeout = d }
}

var defaultProvider region.Provider = &region.POSIXProvider{}

// registry maps a region name to the one Go value bound to it in this
// process. Storage is generic per container type T, but the registry
// itself is not — it is keyed purely by name, so a second Open of the
// same name with a different T fails its type check and is rejected
// with StatusInvalidArgument rather than silently aliased.
var (
	registryMu sync.Mutex
	registry   = make(map[string]*storageEntry)
)

type storageEntry struct {
	region []byte
	value  any
}

// Storage binds a ContainerSpec[T] to a named, process-shared region: it
// is the piece that decides, per process, whether to CreateBlock or
// OpenBlock, and enforces that within one process a given region name
// resolves to exactly one Go value regardless of how many times Open is
// called for it.
type Storage[T any] struct {
	name     string
	provider region.Provider
	region   []byte
	value    T
}

// Open binds spec to name: the first Storage anywhere to reach the
// backing region (region.Provider's created=true case) builds it, and
// every other Storage — in this process or another — attaches to the
// bytes the builder published, waiting via Backoff if it arrives first.
// Within a single process, repeated Open calls for the same name return
// the same Go value from the process-wide registry rather than
// re-attaching.
func Open[T any](name string, spec ContainerSpec[T], opts ...StorageOption) (*Storage[T], Status, error) {
	options := storageOptions{provider: defaultProvider, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	registryMu.Lock()
	if entry, ok := registry[name]; ok {
		registryMu.Unlock()
		value, ok := entry.value.(T)
		if !ok {
			return nil, StatusInvalidArgument, fmt.Errorf("shmtab: region %q already open with a different container type", name)
		}
		return &Storage[T]{name: name, provider: options.provider, region: entry.region, value: value}, StatusSuccess, nil
	}
	registryMu.Unlock()

	total := int64(BlockFootprint(spec.Size))
	data, created, err := options.provider.Open(name, total)
	if err != nil {
		return nil, StatusError, fmt.Errorf("shmtab: open region %q: %w", name, err)
	}
	if int64(len(data)) != total {
		return nil, StatusInvalidArgument, fmt.Errorf("shmtab: region %q has size %d, want %d", name, len(data), total)
	}

	var value T
	var status Status
	if created {
		block, s := CreateBlock(data, spec.Build)
		status = s
		if s == StatusSuccess {
			value = block.Value()
		}
	} else {
		block, s := OpenBlock(data, NewBackoff(options.timeout), spec.Attach)
		status = s
		if s == StatusSuccess {
			value = block.Value()
		}
	}
	if status != StatusSuccess {
		return nil, status, fmt.Errorf("shmtab: bind region %q: %s", name, status)
	}

	registryMu.Lock()
	if entry, ok := registry[name]; ok {
		// A concurrent Open of the same name registered first: drop this
		// mapping and hand back the registered value instead.
		registryMu.Unlock()
		options.provider.Close(data)
		existing, ok := entry.value.(T)
		if !ok {
			return nil, StatusInvalidArgument, fmt.Errorf("shmtab: region %q already open with a different container type", name)
		}
		return &Storage[T]{name: name, provider: options.provider, region: entry.region, value: existing}, StatusSuccess, nil
	}
	registry[name] = &storageEntry{region: data, value: value}
	registryMu.Unlock()

	return &Storage[T]{name: name, provider: options.provider, region: data, value: value}, StatusSuccess, nil
}

// Value returns the bound container.
func (s *Storage[T]) Value() T { return s.value }

// Close releases this process's mapping without affecting other
// processes or attempting to remove the underlying name.
func (s *Storage[T]) Close() error {
	registryMu.Lock()
	delete(registry, s.name)
	registryMu.Unlock()
	return s.provider.Close(s.region)
}

// Destroy closes this process's mapping and additionally removes the
// named region, so the next Open anywhere starts fresh. Callers must
// ensure no other process is still attached — Storage does not
// reference-count across processes, matching region.Provider's own
// contract.
func (s *Storage[T]) Destroy() error {
	if err := s.Close(); err != nil {
		return err
	}
	return s.provider.Remove(s.name)
}
