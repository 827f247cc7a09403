// Package extent provides the backing storage a Pool manages: a plain Go
// slice, or a real OS-backed mapping. The allocator core never reads or
// writes through this package in EXT mode. In INT mode it consults the
// extent for the base address and length of the region to carve blocks
// out of; in either mode, Pool.Destroy calls Close on a non-nil extent.
package extent

import "unsafe"

// Extent is a contiguous, byte-addressable region a Pool can manage.
type Extent interface {
	// Bytes returns the full backing slice.
	Bytes() []byte
	// Base returns the address of the first byte of Bytes().
	Base() unsafe.Pointer
	// Len returns len(Bytes()).
	Len() int
	// Close releases any OS resources held by the extent. A no-op for
	// plain slice-backed extents.
	Close() error
}
