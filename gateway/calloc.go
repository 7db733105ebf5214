//go:build cgo

package gateway

// #include <stdlib.h>
import "C"

import (
	"unsafe"

	"github.com/wippyai/borsh-roundtrip/errors"
)

// CAllocator allocates with the C heap so foreign callers may hold the
// pointer indefinitely. Nothing is tracked on the Go side.
type CAllocator struct{}

func (CAllocator) Alloc(size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, errors.AllocationFailed(errors.PhaseBoundary, size, nil)
	}
	ptr := C.malloc(C.size_t(max(size, 1)))
	if ptr == nil {
		return nil, errors.AllocationFailed(errors.PhaseBoundary, size, nil)
	}
	return ptr, nil
}

func (CAllocator) Free(ptr unsafe.Pointer, size int) {
	C.free(ptr)
}
