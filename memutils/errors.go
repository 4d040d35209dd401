package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrNoMemory is returned when a region cannot satisfy a request because its free span has been exhausted.
// It is recoverable: the caller may release memory and retry, or fall back to another allocator.
var ErrNoMemory error = errors.New("no memory")

// ErrUnsupported is returned by operations that an allocator will never support, such as extending
// the backing memory of a bootstrap region.
var ErrUnsupported error = errors.New("operation not supported")
