package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/hideo55/go-popcount"
)

type Number interface {
	~int | ~uint | ~uintptr | ~uint64
}

// IsPow2 returns true if number has exactly one bit set. Zero is not a power of two.
func IsPow2[T Number](number T) bool {
	return popcount.Count(uint64(number)) == 1
}

// CheckPow2 returns a PowerOfTwoError wrapped with the name and value of the offending
// number if it is zero or not a power of two.
func CheckPow2[T Number](number T, name string) error {
	if !IsPow2(number) {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two
func AlignUp(value uintptr, alignment uintptr) uintptr {
	return (value + alignment - 1) & ^(alignment - 1)
}

// AlignDown rounds value down to the previous multiple of alignment, which must be a power of two
func AlignDown(value uintptr, alignment uintptr) uintptr {
	return value & ^(alignment - 1)
}
