package region

import "sync"

// MemoryProvider is an in-process Provider backed by a plain map, for
// tests that want Storage's create/attach/destroy semantics without a
// real OS-level shared-memory segment. A single MemoryProvider only
// simulates multiple processes attaching to the same name; it does not
// simulate separate address spaces, so it cannot catch bugs where a
// pointer, slice, or string leaks into a region's bytes the way running
// two real OS processes against POSIXProvider would.
type MemoryProvider struct {
	mu      sync.Mutex
	regions map[string][]byte
}

// NewMemoryProvider returns a ready-to-use MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{regions: make(map[string][]byte)}
}

// Open implements Provider.
func (p *MemoryProvider) Open(name string, size int64) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if data, ok := p.regions[name]; ok {
		return data, false, nil
	}
	data := make([]byte, size)
	p.regions[name] = data
	return data, true, nil
}

// Close implements Provider. MemoryProvider regions are not reference
// counted, so Close is a no-op beyond validating data is non-empty.
func (p *MemoryProvider) Close(data []byte) error {
	if len(data) == 0 {
		return ErrAlreadyClosed
	}
	return nil
}

// Remove implements Provider.
func (p *MemoryProvider) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.regions, name)
	return nil
}
