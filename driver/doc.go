// Package driver checks a foreign implementation of the boundary compiled
// to WebAssembly, with the Go process as host.
//
// # Guest ABI
//
//	Export                      Signature
//	──────────────────────────────────────────────────────────────
//	memory                      linear memory
//	roundtrip_test_case         (id, in, in_len, out_ptr_slot, out_len_slot)
//	roundtrip_alloc             (size) -> ptr
//	cabi_realloc                (old, old_size, align, new_size) -> ptr
//	roundtrip_release_buffer    (ptr, len), optional
//
// All values are i32. One of the two allocators must be exported;
// roundtrip_alloc wins when both are.
//
// # Check Flow
//
//  1. Encode the case's reference with the local codec
//  2. Allocate input and slots in the guest and copy the input in
//  3. Call roundtrip_test_case and read the output pointer and length
//  4. Copy the output out and release every guest buffer
//  5. Compare bytes and run the local conformance check on the output
//
// A guest trap or proc_exit yields verdict GuestAborted.
package driver
