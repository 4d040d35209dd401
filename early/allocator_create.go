package early

import (
	"io"

	"github.com/vkngwrapper/earlyboot/memutils"
	"golang.org/x/exp/slog"
)

const (
	// DefaultPageSize is the value that is used as the page size when none is provided via
	// CreateOptions. It is equal to 4Kb.
	DefaultPageSize uintptr = 0x1000
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// PageSize is the fixed page size used for page accounting and, when ReservePageSpan is set,
	// for sizing page reservations. It must be a power of two. Zero selects DefaultPageSize.
	PageSize uintptr

	// Assertions controls whether alignment preconditions and region invariants are checked.
	// By default they are checked only in builds tagged debug_early_mem.
	Assertions memutils.AssertionMode

	// ReservePageSpan changes AllocPages so that each call reserves numPages*PageSize bytes
	// below the current page cursor, instead of aligning the top of the region down. With the
	// default behavior, repeated calls return overlapping ranges.
	ReservePageSpan bool

	// Logger receives debug logging for allocations, frees and failures. A nil Logger
	// discards all output.
	Logger *slog.Logger
}

// NewAllocator creates an allocator that is not yet managing any memory. Init must be called before
// any allocation is made.
func NewAllocator(options CreateOptions) *Allocator {
	pageSize := options.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	err := memutils.CheckPow2(pageSize, "options.PageSize")
	if err != nil {
		panic(err)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	return &Allocator{
		logger:          logger,
		pageSize:        pageSize,
		assertions:      options.Assertions,
		reservePageSpan: options.ReservePageSpan,
	}
}
