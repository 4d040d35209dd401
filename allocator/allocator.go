// Package allocator declares the capability contracts that kernel allocators are expected to satisfy.
// An allocator may implement any combination of them; the bootstrap allocator in package early
// implements all three.
package allocator

// Layout describes the size and alignment of a byte allocation. Align must be a non-zero power of two.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout is a convenience constructor for Layout
func NewLayout(size, align uintptr) Layout {
	return Layout{Size: size, Align: align}
}

// BaseAllocator is the capability shared by every allocator: it can be handed a range of memory
// to manage.
type BaseAllocator interface {
	// Init gives the allocator the memory range [start, start+size) to manage. It must be called
	// before any allocation is made.
	Init(start, size uintptr)
	// AddMemory extends the allocator with an additional range. Allocators that cannot be extended
	// return memutils.ErrUnsupported.
	AddMemory(start, size uintptr) error
}

// ByteAllocator serves arbitrary-size allocations
type ByteAllocator interface {
	BaseAllocator

	// Alloc returns the address of a new allocation satisfying layout, or memutils.ErrNoMemory
	Alloc(layout Layout) (uintptr, error)
	// Dealloc releases an allocation previously returned by Alloc
	Dealloc(addr uintptr, layout Layout)

	TotalBytes() uintptr
	UsedBytes() uintptr
	AvailableBytes() uintptr
}

// PageAllocator serves allocations in units of a fixed page size
type PageAllocator interface {
	BaseAllocator

	// PageSize is the fixed page size in bytes chosen when the allocator was created
	PageSize() uintptr
	// AllocPages returns the address of numPages pages aligned to alignment, or memutils.ErrNoMemory
	AllocPages(numPages int, alignment uintptr) (uintptr, error)
	// DeallocPages releases pages previously returned by AllocPages
	DeallocPages(addr uintptr, numPages int)

	TotalPages() int
	UsedPages() int
	AvailablePages() int
}
