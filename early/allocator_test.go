package early_test

import (
	"math/rand"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/earlyboot/allocator"
	"github.com/vkngwrapper/earlyboot/early"
	"github.com/vkngwrapper/earlyboot/memutils"
)

const (
	regionStart uintptr = 0x80000
	regionSize  uintptr = 0x10000
)

func newAllocator(t *testing.T, options early.CreateOptions) *early.Allocator {
	if options.Assertions == memutils.AssertionsDefault {
		options.Assertions = memutils.AssertionsEnabled
	}
	a := early.NewAllocator(options)
	a.Init(regionStart, regionSize)
	require.NoError(t, a.Validate())
	return a
}

func TestInit(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	require.Equal(t, regionSize, a.TotalBytes())
	require.Equal(t, regionSize, a.AvailableBytes())
	require.Equal(t, uintptr(0), a.UsedBytes())
	require.Equal(t, 16, a.TotalPages())
	require.Equal(t, 0, a.UsedPages())
	require.Equal(t, 16, a.AvailablePages())
	require.Equal(t, early.DefaultPageSize, a.PageSize())
	require.Equal(t, regionStart, a.Start())
	require.Equal(t, regionStart+regionSize, a.End())
	require.True(t, a.IsEmpty())
}

func TestReinitDiscardsAllocations(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	_, err := a.Alloc(allocator.NewLayout(100, 8))
	require.NoError(t, err)
	_, err = a.AllocPages(1, 0x1000)
	require.NoError(t, err)

	a.Init(0x200000, 0x2000)
	require.Equal(t, uintptr(0x2000), a.AvailableBytes())
	require.Equal(t, 0, a.AllocationCount())
	require.Equal(t, 0, a.UsedPages())
	require.NoError(t, a.Validate())
}

func TestAllocAlignedAndDisjoint(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	layouts := []allocator.Layout{
		{Size: 1, Align: 1},
		{Size: 24, Align: 8},
		{Size: 3, Align: 2},
		{Size: 100, Align: 64},
		{Size: 7, Align: 1},
		{Size: 512, Align: 256},
		{Size: 0, Align: 16},
		{Size: 33, Align: 4},
	}

	type span struct{ lo, hi uintptr }
	var spans []span
	for _, layout := range layouts {
		addr, err := a.Alloc(layout)
		require.NoError(t, err)
		require.Zero(t, addr%layout.Align)
		require.GreaterOrEqual(t, uint64(addr), uint64(regionStart))
		require.LessOrEqual(t, uint64(addr+layout.Size), uint64(regionStart+regionSize))

		for _, other := range spans {
			require.False(t, addr < other.hi && other.lo < addr+layout.Size,
				"allocation [%#x, %#x) overlaps [%#x, %#x)", addr, addr+layout.Size, other.lo, other.hi)
		}
		spans = append(spans, span{lo: addr, hi: addr + layout.Size})
	}

	require.Equal(t, len(layouts), a.AllocationCount())
	require.Equal(t, a.TotalBytes(), a.UsedBytes()+a.AvailableBytes())
}

func TestAllocPadding(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	first, err := a.Alloc(allocator.NewLayout(1, 1))
	require.NoError(t, err)
	require.Equal(t, regionStart, first)

	second, err := a.Alloc(allocator.NewLayout(16, 16))
	require.NoError(t, err)
	require.Equal(t, regionStart+16, second)
	require.Equal(t, uintptr(32), a.UsedBytes())
}

func TestAllocExhaustion(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	_, err := a.Alloc(allocator.NewLayout(regionSize-0x100, 8))
	require.NoError(t, err)
	require.Equal(t, uintptr(0x100), a.AvailableBytes())

	_, err = a.Alloc(allocator.NewLayout(0x101, 1))
	require.ErrorIs(t, err, memutils.ErrNoMemory)
	require.Equal(t, 1, a.AllocationCount())
	require.Equal(t, uintptr(0x100), a.AvailableBytes())

	addr, err := a.Alloc(allocator.NewLayout(0x100, 1))
	require.NoError(t, err)
	require.Equal(t, regionStart+regionSize-0x100, addr)
	require.Equal(t, uintptr(0), a.AvailableBytes())

	_, err = a.Alloc(allocator.NewLayout(1, 1))
	require.ErrorIs(t, err, memutils.ErrNoMemory)
}

func TestAllocStopsAtPageCursor(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{ReservePageSpan: true})

	pages, err := a.AllocPages(1, 0x4000)
	require.NoError(t, err)
	require.Equal(t, uintptr(0x8c000), pages)

	_, err = a.Alloc(allocator.NewLayout(pages-regionStart+1, 1))
	require.ErrorIs(t, err, memutils.ErrNoMemory)

	addr, err := a.Alloc(allocator.NewLayout(pages-regionStart, 1))
	require.NoError(t, err)
	require.Equal(t, regionStart, addr)
	require.Equal(t, uintptr(0), a.AvailableBytes())
}

func TestAllocAlignmentOverflow(t *testing.T) {
	a := early.NewAllocator(early.CreateOptions{Assertions: memutils.AssertionsEnabled})
	a.Init(^uintptr(0)-0x100, 0x80)

	_, err := a.Alloc(allocator.NewLayout(1, 0x1000))
	require.ErrorIs(t, err, memutils.ErrNoMemory)
}

func TestBulkFree(t *testing.T) {
	orders := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
	}

	for _, order := range orders {
		a := newAllocator(t, early.CreateOptions{})

		layout := allocator.NewLayout(40, 8)
		addrs := make([]uintptr, len(order))
		for i := range addrs {
			addr, err := a.Alloc(layout)
			require.NoError(t, err)
			addrs[i] = addr
		}

		for i, index := range order {
			require.NotZero(t, a.UsedBytes())
			a.Dealloc(addrs[index], layout)
			require.Equal(t, len(order)-i-1, a.AllocationCount())
		}

		require.Zero(t, a.UsedBytes())
		require.Equal(t, regionSize, a.AvailableBytes())

		addr, err := a.Alloc(layout)
		require.NoError(t, err)
		require.Equal(t, regionStart, addr)
	}
}

func TestBulkFreeKeepsPages(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	layout := allocator.NewLayout(64, 8)
	addr, err := a.Alloc(layout)
	require.NoError(t, err)

	pages, err := a.AllocPages(2, 0x2000)
	require.NoError(t, err)

	a.Dealloc(addr, layout)
	require.Zero(t, a.UsedBytes())
	require.Equal(t, pages-regionStart, a.AvailableBytes())
	require.Equal(t, 0, a.UsedPages())
	require.Equal(t, 16, a.AvailablePages())
}

func TestAllocPages(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	addr, err := a.AllocPages(1, 0x1000)
	require.NoError(t, err)
	require.Equal(t, regionStart+regionSize, addr)
	require.Equal(t, 0, a.UsedPages())

	// The reservation is always the aligned top of the region
	addr, err = a.AllocPages(4, 0x8000)
	require.NoError(t, err)
	require.Equal(t, uintptr(0x90000), addr)

	addr, err = a.AllocPages(4, 0x8000)
	require.NoError(t, err)
	require.Equal(t, uintptr(0x90000), addr)

	a.DeallocPages(addr, 4)
	require.NoError(t, a.Validate())

	a.Init(regionStart, 0xf800)
	addr, err = a.AllocPages(1, 0x1000)
	require.NoError(t, err)
	require.Equal(t, uintptr(0x8f000), addr)
	require.Equal(t, uintptr(0x8f000-regionStart), a.AvailableBytes())
}

func TestAllocPagesNeverBelowByteCursor(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})
	a.Init(regionStart, 0xb000)

	_, err := a.Alloc(allocator.NewLayout(0x9000, 1))
	require.NoError(t, err)

	_, err = a.AllocPages(1, 0x4000)
	require.ErrorIs(t, err, memutils.ErrNoMemory)

	addr, err := a.AllocPages(1, 0x2000)
	require.NoError(t, err)
	require.Greater(t, uint64(addr), uint64(regionStart+0x9000))
	require.Equal(t, uintptr(0x8a000), addr)
	require.Equal(t, uintptr(0x1000), a.AvailableBytes())
}

func TestAllocPagesAlignmentLargerThanRegion(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	_, err := a.AllocPages(1, 0x100000)
	require.ErrorIs(t, err, memutils.ErrNoMemory)
	require.Equal(t, regionSize, a.AvailableBytes())
}

func TestAllocPagesReservePageSpan(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{ReservePageSpan: true})

	first, err := a.AllocPages(2, 0x1000)
	require.NoError(t, err)
	require.Equal(t, uintptr(0x8e000), first)
	require.Equal(t, 2, a.UsedPages())

	second, err := a.AllocPages(1, 0x4000)
	require.NoError(t, err)
	require.Equal(t, uintptr(0x8c000), second)
	require.Equal(t, 4, a.UsedPages())
	require.Equal(t, 12, a.AvailablePages())

	_, err = a.AllocPages(13, 0x1000)
	require.ErrorIs(t, err, memutils.ErrNoMemory)

	_, err = a.AllocPages(1<<40, 0x1000)
	require.ErrorIs(t, err, memutils.ErrNoMemory)

	last, err := a.AllocPages(11, 0x1000)
	require.NoError(t, err)
	require.Equal(t, regionStart+0x1000, last)
	require.NoError(t, a.Validate())
}

func TestAddMemoryUnsupported(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	err := a.AddMemory(0x100000, 0x1000)
	require.ErrorIs(t, err, memutils.ErrUnsupported)
	require.Equal(t, regionSize, a.TotalBytes())
}

func TestAssertionsEnabled(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{Assertions: memutils.AssertionsEnabled})

	require.Panics(t, func() {
		_, _ = a.Alloc(allocator.NewLayout(8, 3))
	})
	require.Panics(t, func() {
		_, _ = a.Alloc(allocator.NewLayout(8, 0))
	})
	require.Panics(t, func() {
		_, _ = a.AllocPages(1, 0x1800)
	})
	require.Panics(t, func() {
		a.Dealloc(regionStart, allocator.NewLayout(8, 8))
	})
}

func TestAssertionsDisabled(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{Assertions: memutils.AssertionsDisabled})

	require.NotPanics(t, func() {
		a.Dealloc(regionStart, allocator.NewLayout(8, 8))
	})
	require.Equal(t, 0, a.AllocationCount())
	require.NoError(t, a.Validate())
}

func TestInvalidPageSize(t *testing.T) {
	require.Panics(t, func() {
		early.NewAllocator(early.CreateOptions{PageSize: 3000})
	})
}

func TestStatistics(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{ReservePageSpan: true})

	_, err := a.Alloc(allocator.NewLayout(100, 4))
	require.NoError(t, err)
	_, err = a.Alloc(allocator.NewLayout(28, 4))
	require.NoError(t, err)
	_, err = a.AllocPages(1, 0x4000)
	require.NoError(t, err)

	var stats memutils.DetailedStatistics
	stats.Clear()
	a.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			RegionCount:     1,
			AllocationCount: 2,
			RegionBytes:     0x10000,
			AllocationBytes: 128,
			PageBytes:       0x4000,
		},
		PageAllocationCount: 1,
		TotalPages:          16,
		UsedPages:           4,
		AvailablePages:      11,
	}, stats)
	require.Equal(t, 0x10000-128-0x4000, stats.UnusedBytes())
}

func TestAllocatorJsonData(t *testing.T) {
	a := newAllocator(t, early.CreateOptions{})

	_, err := a.Alloc(allocator.NewLayout(16, 16))
	require.NoError(t, err)
	_, err = a.AllocPages(1, 0x2000)
	require.NoError(t, err)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	a.AllocatorJsonData(obj)
	obj.End()

	require.JSONEq(t, `{
		"Start": "0x80000",
		"End": "0x90000",
		"PageSize": 4096,
		"Allocations": 1,
		"PageAllocations": 1,
		"Bytes": {"Total": 65536, "Used": 16, "Available": 65520},
		"Pages": {"Total": 16, "Used": 0, "Available": 15}
	}`, string(writer.Bytes()))
}

func TestRandomOperations(t *testing.T) {
	for _, reserve := range []bool{false, true} {
		r := rand.New(rand.NewSource(7))
		a := newAllocator(t, early.CreateOptions{ReservePageSpan: reserve})

		type live struct {
			addr   uintptr
			layout allocator.Layout
		}
		var allocs []live
		var pages []uintptr

		for i := 0; i < 2000; i++ {
			switch op := r.Intn(10); {
			case op < 6:
				layout := allocator.NewLayout(uintptr(r.Intn(512)), uintptr(1)<<r.Intn(8))
				before := a.AvailableBytes()
				addr, err := a.Alloc(layout)
				if err != nil {
					require.ErrorIs(t, err, memutils.ErrNoMemory)
					require.Equal(t, before, a.AvailableBytes())
					continue
				}

				require.Zero(t, addr%layout.Align)
				for _, other := range allocs {
					require.False(t, addr < other.addr+other.layout.Size && other.addr < addr+layout.Size)
				}
				for _, page := range pages {
					require.LessOrEqual(t, uint64(addr+layout.Size), uint64(page))
				}
				allocs = append(allocs, live{addr: addr, layout: layout})
			case op < 9:
				if len(allocs) == 0 {
					continue
				}
				index := r.Intn(len(allocs))
				a.Dealloc(allocs[index].addr, allocs[index].layout)
				allocs = append(allocs[:index], allocs[index+1:]...)
				if len(allocs) == 0 {
					require.Zero(t, a.UsedBytes())
				}
			default:
				addr, err := a.AllocPages(1+r.Intn(2), uintptr(0x1000)<<r.Intn(3))
				if err != nil {
					require.ErrorIs(t, err, memutils.ErrNoMemory)
					continue
				}
				require.Greater(t, uint64(addr), uint64(regionStart+a.UsedBytes()))
				if reserve {
					pages = append(pages, addr)
				}
			}

			require.NoError(t, a.Validate())
			require.Equal(t, len(allocs), a.AllocationCount())
		}
	}
}
