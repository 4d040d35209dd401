// Package early provides the bootstrap region allocator used during kernel bring-up, before the
// permanent byte and page allocators are online.
//
// The allocator manages a single contiguous range of addresses from both ends:
//
//	[ bytes-used | available | pages-used ]
//	|            | -->   <-- |            |
//	start        bpos      ppos         end
//
// Byte allocations bump bpos upward. They are not freed individually: the allocator counts live
// byte allocations and, when the count returns to zero, reclaims the whole byte sub-region at once.
// Page allocations move ppos downward and are never reclaimed.
//
// The allocator deals only in addresses and never reads or writes the memory they refer to.
package early

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/earlyboot/allocator"
	"github.com/vkngwrapper/earlyboot/memutils"
	"golang.org/x/exp/slog"
)

// Allocator is the double-ended bootstrap allocator. It satisfies allocator.ByteAllocator
// and allocator.PageAllocator. Allocators must be created with NewAllocator.
//
// Allocator performs no locking: only the single bring-up thread may call into it.
type Allocator struct {
	logger          *slog.Logger
	pageSize        uintptr
	assertions      memutils.AssertionMode
	reservePageSpan bool

	start uintptr
	end   uintptr
	bpos  uintptr
	ppos  uintptr
	// Live byte allocations
	cnt int

	pageAllocs int
}

var _ allocator.ByteAllocator = &Allocator{}
var _ allocator.PageAllocator = &Allocator{}

// Init prepares the allocator to manage [start, start+size). Calling Init again discards every
// allocation made so far without any check.
func (a *Allocator) Init(start, size uintptr) {
	a.logger.Debug("Allocator::Init", slog.Any("Start", start), slog.Any("Size", size))

	a.start = start
	a.end = start + size
	a.bpos = start
	a.ppos = a.end
	a.cnt = 0
	a.pageAllocs = 0
}

// AddMemory always fails with memutils.ErrUnsupported: a bootstrap region cannot be extended
func (a *Allocator) AddMemory(start, size uintptr) error {
	return errors.Wrapf(memutils.ErrUnsupported, "cannot add [%#x, %#x) to a bootstrap region", start, start+size)
}

// PageSize returns the page size in bytes this allocator was created with
func (a *Allocator) PageSize() uintptr { return a.pageSize }

// Start returns the lowest address of the managed region
func (a *Allocator) Start() uintptr { return a.start }

// End returns one past the highest address of the managed region
func (a *Allocator) End() uintptr { return a.end }

// AllocationCount returns the number of live byte allocations
func (a *Allocator) AllocationCount() int { return a.cnt }

// IsEmpty returns true if there are no live byte allocations. Page allocations are not counted,
// since they are never freed.
func (a *Allocator) IsEmpty() bool { return a.cnt == 0 }

// Alloc carves layout.Size bytes from the low end of the region, aligned to layout.Align.
// It returns memutils.ErrNoMemory if the allocation would cross into the page sub-region.
//
// layout.Align must be a non-zero power of two. When assertions are enabled, a malformed alignment
// panics; otherwise the result is unspecified.
func (a *Allocator) Alloc(layout allocator.Layout) (uintptr, error) {
	a.assertions.CheckPow2(layout.Align, "layout.Align")

	candidate := memutils.AlignUp(a.bpos, layout.Align)
	next := candidate + layout.Size
	if candidate < a.bpos || next < candidate || next > a.ppos {
		a.logger.Debug("Allocator::Alloc out of memory",
			slog.Any("Size", layout.Size),
			slog.Any("Align", layout.Align),
			slog.Any("Available", a.AvailableBytes()))
		return 0, errors.Wrapf(memutils.ErrNoMemory, "byte allocation of %d bytes aligned to %d", layout.Size, layout.Align)
	}

	a.bpos = next
	a.cnt++
	a.logger.Debug("Allocator::Alloc", slog.Any("Addr", candidate), slog.Any("Size", layout.Size), slog.Int("Count", a.cnt))

	a.assertions.Validate(a)
	return candidate, nil
}

// Dealloc releases a byte allocation. The address and layout are not inspected: the allocator
// only counts live allocations, and reclaims the entire byte sub-region when the count reaches zero.
//
// Calling Dealloc with no live allocations panics when assertions are enabled and is ignored otherwise.
func (a *Allocator) Dealloc(addr uintptr, layout allocator.Layout) {
	if a.cnt == 0 {
		if a.assertions.Enabled() {
			panic(errors.Newf("dealloc of %#x with no live byte allocations", addr))
		}
		return
	}

	a.cnt--
	if a.cnt == 0 {
		a.bpos = a.start
	}
	a.logger.Debug("Allocator::Dealloc", slog.Any("Addr", addr), slog.Int("Count", a.cnt))

	a.assertions.Validate(a)
}

// AllocPages reserves page memory from the high end of the region and returns its address.
// It returns memutils.ErrNoMemory if the reservation would reach down to the byte sub-region.
//
// By default, the reservation is the end of the region aligned down to alignment, regardless of
// numPages or of earlier page allocations. When the allocator was created with ReservePageSpan,
// numPages*PageSize bytes are reserved below the current page cursor instead.
func (a *Allocator) AllocPages(numPages int, alignment uintptr) (uintptr, error) {
	a.assertions.CheckPow2(alignment, "alignment")

	var candidate uintptr
	if a.reservePageSpan {
		span := uintptr(numPages) * a.pageSize
		if numPages < 0 || span > a.ppos {
			return 0, a.pageExhausted(numPages, alignment)
		}
		candidate = memutils.AlignDown(a.ppos-span, alignment)
	} else {
		candidate = memutils.AlignDown(a.end, alignment)
	}

	if candidate <= a.bpos {
		return 0, a.pageExhausted(numPages, alignment)
	}

	a.ppos = candidate
	a.pageAllocs++
	a.logger.Debug("Allocator::AllocPages", slog.Any("Addr", candidate), slog.Int("NumPages", numPages))

	a.assertions.Validate(a)
	return candidate, nil
}

func (a *Allocator) pageExhausted(numPages int, alignment uintptr) error {
	a.logger.Debug("Allocator::AllocPages out of memory",
		slog.Int("NumPages", numPages),
		slog.Any("Align", alignment),
		slog.Int("AvailablePages", a.AvailablePages()))
	return errors.Wrapf(memutils.ErrNoMemory, "page allocation of %d pages aligned to %d", numPages, alignment)
}

// DeallocPages does nothing: page memory in a bootstrap region is never reclaimed
func (a *Allocator) DeallocPages(addr uintptr, numPages int) {}

func (a *Allocator) TotalBytes() uintptr     { return a.end - a.start }
func (a *Allocator) UsedBytes() uintptr      { return a.bpos - a.start }
func (a *Allocator) AvailableBytes() uintptr { return a.ppos - a.bpos }

func (a *Allocator) TotalPages() int     { return int((a.end - a.start) / a.pageSize) }
func (a *Allocator) UsedPages() int      { return int((a.end - a.ppos) / a.pageSize) }
func (a *Allocator) AvailablePages() int { return int((a.ppos - a.bpos) / a.pageSize) }

// Validate performs internal consistency checks on the cursors. When the allocator is functioning
// correctly, it should not be possible for this method to return an error.
func (a *Allocator) Validate() error {
	if a.start > a.end {
		return errors.Errorf("region start %#x is above region end %#x", a.start, a.end)
	}

	if a.bpos < a.start {
		return errors.Errorf("byte cursor %#x is below region start %#x", a.bpos, a.start)
	}

	if a.bpos > a.ppos {
		return errors.Errorf("byte cursor %#x has crossed page cursor %#x", a.bpos, a.ppos)
	}

	if a.ppos > a.end {
		return errors.Errorf("page cursor %#x is above region end %#x", a.ppos, a.end)
	}

	if a.cnt < 0 {
		return errors.Errorf("live allocation count is negative: %d", a.cnt)
	}

	if a.cnt == 0 && a.bpos != a.start {
		return errors.Errorf("there are no live byte allocations, but the byte cursor %#x is not at region start %#x", a.bpos, a.start)
	}

	return nil
}

// AddStatistics sums this region's usage into the statistics currently present in the provided
// memutils.Statistics object.
func (a *Allocator) AddStatistics(stats *memutils.Statistics) {
	stats.RegionCount++
	stats.AllocationCount += a.cnt
	stats.RegionBytes += int(a.TotalBytes())
	stats.AllocationBytes += int(a.UsedBytes())
	stats.PageBytes += int(a.end - a.ppos)
}

// AddDetailedStatistics sums this region's usage into the statistics currently present in the
// provided memutils.DetailedStatistics object.
func (a *Allocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.AddStatistics(&stats.Statistics)
	stats.PageAllocationCount += a.pageAllocs
	stats.TotalPages += a.TotalPages()
	stats.UsedPages += a.UsedPages()
	stats.AvailablePages += a.AvailablePages()
}

// AllocatorJsonData populates a json object with information about this region
func (a *Allocator) AllocatorJsonData(json jwriter.ObjectState) {
	json.Name("Start").String(hexAddr(a.start))
	json.Name("End").String(hexAddr(a.end))
	json.Name("PageSize").Int(int(a.pageSize))
	json.Name("Allocations").Int(a.cnt)
	json.Name("PageAllocations").Int(a.pageAllocs)

	bytesObj := json.Name("Bytes").Object()
	bytesObj.Name("Total").Int(int(a.TotalBytes()))
	bytesObj.Name("Used").Int(int(a.UsedBytes()))
	bytesObj.Name("Available").Int(int(a.AvailableBytes()))
	bytesObj.End()

	pagesObj := json.Name("Pages").Object()
	pagesObj.Name("Total").Int(a.TotalPages())
	pagesObj.Name("Used").Int(a.UsedPages())
	pagesObj.Name("Available").Int(a.AvailablePages())
	pagesObj.End()
}

func hexAddr(addr uintptr) string {
	return "0x" + strconv.FormatUint(uint64(addr), 16)
}
