//go:build wasip1

// Command roundtrip-wasm builds the conformance harness as a WASI reactor:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o roundtrip.wasm ./cmd/roundtrip-wasm
//
// Addresses cross the boundary as i32 offsets into linear memory. The host
// places its input with roundtrip_alloc and returns every buffer, input
// included, through roundtrip_release_buffer.
package main

import (
	"unsafe"

	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/gateway"
)

var (
	heap = gateway.NewHeapAllocator()
	gw   = gateway.New(gateway.WithAllocator(heap))

	errNilSlot = errors.InvalidInput(errors.PhaseBoundary, "nil output slot")
)

func addr(p uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p))
}

//go:wasmexport roundtrip_test_case
func roundtripTestCase(id uint32, in, inLen, outPtr, outLen uint32) {
	if outPtr == 0 || outLen == 0 {
		gw.Abort(errNilSlot)
		return
	}
	buf, err := gw.Call(uint8(id), addr(in), int(inLen))
	if err != nil {
		gw.Abort(err)
		return
	}
	*(*uint32)(addr(outPtr)) = uint32(uintptr(buf.Ptr))
	*(*uint32)(addr(outLen)) = uint32(buf.Len)
}

//go:wasmexport roundtrip_alloc
func roundtripAlloc(size uint32) uint32 {
	ptr, err := heap.Alloc(int(size))
	if err != nil {
		return 0
	}
	return uint32(uintptr(ptr))
}

//go:wasmexport roundtrip_release_buffer
func roundtripReleaseBuffer(ptr, length uint32) {
	if ptr == 0 {
		return
	}
	gw.Release(addr(ptr), int(length))
}

func main() {}
