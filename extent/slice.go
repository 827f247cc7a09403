package extent

import "unsafe"

// sliceExtent backs an Extent with a plain heap-allocated byte slice, the
// default used whenever a caller doesn't need the pool backed by real
// shared or file-backed memory.
type sliceExtent struct {
	data []byte
}

// NewSlice allocates an n-byte Go slice and wraps it as an Extent.
func NewSlice(n int) Extent {
	return &sliceExtent{data: make([]byte, n)}
}

func (s *sliceExtent) Bytes() []byte { return s.data }

func (s *sliceExtent) Base() unsafe.Pointer {
	if len(s.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&s.data[0])
}

func (s *sliceExtent) Len() int { return len(s.data) }

func (s *sliceExtent) Close() error { return nil }
