// Package gateway exposes conformance checks through a raw pointer/length
// calling convention with explicit ownership transfer.
//
// # Boundary Protocol
//
//  1. The caller passes an input pointer and length, plus two output slots.
//  2. The gateway reads the input in place and runs the check.
//  3. On success it copies the canonical encoding into memory from its
//     Allocator and writes the pointer and length into the slots.
//  4. The caller owns the output and must pass it to Release exactly once.
//
// Any failure aborts: by default the error is logged and the process exits
// with ExitCode. TryRoundtrip returns the error instead for embedders that
// prefer to propagate. Either way the output slots are never written on
// failure.
//
// # Allocators
//
//	HeapAllocator  - pinned Go heap memory, tracked until Free
//	CAllocator     - C malloc/free, requires cgo
package gateway
