//go:build unix

package extent

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapExtent backs an Extent with a file-mapped region, owning the file
// it maps.
type mmapExtent struct {
	f    *os.File
	data []byte
}

// NewMmap opens (creating if needed) the file at path, truncates it to
// size bytes, and maps it PROT_READ|PROT_WRITE/MAP_SHARED so a Pool can
// manage a real file-backed or shared-memory region instead of a plain Go
// slice.
func NewMmap(path string, size int) (Extent, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mmapExtent{f: f, data: data}, nil
}

func (m *mmapExtent) Bytes() []byte { return m.data }

func (m *mmapExtent) Base() unsafe.Pointer {
	if len(m.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&m.data[0])
}

func (m *mmapExtent) Len() int { return len(m.data) }

func (m *mmapExtent) Close() error {
	err := unix.Munmap(m.data)
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
