// Package region provides host memory for a bootstrap allocator to manage when it is not
// running on bare metal.
package region

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/earlyboot/memutils"
)

// Region is a contiguous, page-aligned range of host memory that never moves
type Region struct {
	data     []byte
	pageSize int
	release  func([]byte) error
}

// New reserves at least size bytes of read-write memory, rounded up to a whole number of host pages
func New(size int) (*Region, error) {
	if size <= 0 {
		return nil, errors.Newf("region size must be positive, got %d", size)
	}

	pageSize := hostPageSize()
	memutils.DebugCheckPow2(pageSize, "host page size")
	size = int(memutils.AlignUp(uintptr(size), uintptr(pageSize)))

	data, release, err := reserve(size, pageSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reserve %d bytes", size)
	}

	return &Region{
		data:     data,
		pageSize: pageSize,
		release:  release,
	}, nil
}

// Start returns the address of the first byte of the region
func (r *Region) Start() uintptr {
	return uintptr(unsafe.Pointer(&r.data[0]))
}

// Size returns the size of the region in bytes
func (r *Region) Size() uintptr {
	return uintptr(len(r.data))
}

// PageSize returns the host page size the region was rounded to
func (r *Region) PageSize() int {
	return r.pageSize
}

// Bytes returns the memory at [addr, addr+size) as a slice. The range must lie within the region.
func (r *Region) Bytes(addr, size uintptr) ([]byte, error) {
	if r.data == nil {
		return nil, errors.New("region has been closed")
	}

	start := r.Start()
	if addr < start || addr-start > r.Size() || size > r.Size()-(addr-start) {
		return nil, errors.Newf("range [%#x, %#x) is outside region [%#x, %#x)", addr, addr+size, start, start+r.Size())
	}

	offset := addr - start
	return r.data[offset : offset+size : offset+size], nil
}

// Close releases the region. Slices previously returned by Bytes must not be used afterward.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}

	err := r.release(r.data)
	r.data = nil
	return err
}
