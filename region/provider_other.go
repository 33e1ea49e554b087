//go:build !unix

package region

import "errors"

// POSIXProvider is unavailable on this platform. Every method returns an
// error; construct one only to fail fast with a clear message rather
// than let a nil-interface panic surface somewhere unrelated.
type POSIXProvider struct {
	Dir string
}

var errUnsupported = errors.New("region: POSIXProvider is not supported on this platform")

func (p *POSIXProvider) Open(name string, size int64) ([]byte, bool, error) {
	return nil, false, errUnsupported
}

func (p *POSIXProvider) Close(data []byte) error { return errUnsupported }

func (p *POSIXProvider) Remove(name string) error { return errUnsupported }
