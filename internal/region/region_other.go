//go:build !linux && !darwin

package region

import (
	"os"
	"unsafe"

	"github.com/vkngwrapper/earlyboot/memutils"
)

func hostPageSize() int {
	return os.Getpagesize()
}

func reserve(size, pageSize int) ([]byte, func([]byte) error, error) {
	backing := make([]byte, size+pageSize)
	base := uintptr(unsafe.Pointer(&backing[0]))
	offset := int(memutils.AlignUp(base, uintptr(pageSize)) - base)

	return backing[offset : offset+size : offset+size], func([]byte) error { return nil }, nil
}
