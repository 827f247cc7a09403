//go:build windows

package extent

import "errors"

// ErrNotSupported is returned by NewMmap on platforms this package hasn't
// wired a mapping backend for yet.
var ErrNotSupported = errors.New("extent: mmap not supported on this platform")

// NewMmap is unimplemented on windows; use NewSlice instead.
func NewMmap(path string, size int) (Extent, error) {
	return nil, ErrNotSupported
}
