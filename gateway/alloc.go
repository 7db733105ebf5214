package gateway

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/wippyai/borsh-roundtrip/errors"
)

// Allocator provides memory whose address is handed to a foreign caller.
// Free receives exactly the pointer and size returned by Alloc.
type Allocator interface {
	Alloc(size int) (unsafe.Pointer, error)
	Free(ptr unsafe.Pointer, size int)
}

// HeapAllocator hands out pinned Go heap memory and keeps it reachable
// until Free. It suits callers that live in the same address space without
// cgo pointer rules, such as a wasm host or tests.
type HeapAllocator struct {
	pinned map[uintptr]*heapBuffer
	mu     sync.Mutex
}

type heapBuffer struct {
	buf    []byte
	pinner runtime.Pinner
}

func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{pinned: make(map[uintptr]*heapBuffer)}
}

// Alloc returns at least one byte so every allocation has a unique address.
func (a *HeapAllocator) Alloc(size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, errors.AllocationFailed(errors.PhaseBoundary, size, nil)
	}

	hb := &heapBuffer{buf: make([]byte, max(size, 1))}
	ptr := unsafe.Pointer(&hb.buf[0])
	hb.pinner.Pin(ptr)

	a.mu.Lock()
	a.pinned[uintptr(ptr)] = hb
	a.mu.Unlock()
	return ptr, nil
}

// Free unpins ptr. Unknown pointers are ignored.
func (a *HeapAllocator) Free(ptr unsafe.Pointer, size int) {
	a.mu.Lock()
	hb, ok := a.pinned[uintptr(ptr)]
	delete(a.pinned, uintptr(ptr))
	a.mu.Unlock()

	if ok {
		hb.pinner.Unpin()
	}
}

// Live returns the number of allocations not yet freed.
func (a *HeapAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pinned)
}
