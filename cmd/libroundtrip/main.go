// Command libroundtrip builds the conformance harness as a C shared library:
//
//	go build -buildmode=c-shared -o libroundtrip.so ./cmd/libroundtrip
//
// A foreign implementation links against it, encodes each case with its own
// codec, calls roundtrip_test_case, decodes the returned buffer and hands it
// back through roundtrip_release_buffer. Any failure ends the process with
// exit status 101.
package main

// #include <stdint.h>
// #include <stddef.h>
import "C"

import (
	"unsafe"

	"github.com/wippyai/borsh-roundtrip/gateway"
)

var gw = gateway.New(gateway.WithAllocator(gateway.CAllocator{}))

//export roundtrip_test_case
func roundtrip_test_case(id C.uint8_t, input *C.uint8_t, inputLen C.size_t, output **C.uint8_t, outputLen *C.size_t) {
	gw.Roundtrip(uint8(id),
		unsafe.Pointer(input), int(inputLen),
		(*unsafe.Pointer)(unsafe.Pointer(output)),
		(*uintptr)(unsafe.Pointer(outputLen)))
}

//export roundtrip_release_buffer
func roundtrip_release_buffer(ptr *C.uint8_t, length C.size_t) {
	gw.Release(unsafe.Pointer(ptr), int(length))
}

func main() {}
