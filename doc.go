// Package roundtrip is a conformance harness for the canonical binary
// serialization format used by Borsh.
//
// A foreign caller hands bytes it encoded for one of a fixed set of test
// cases across a raw pointer/length boundary. The harness decodes them,
// checks the value against its own reference, and hands back its own
// canonical encoding for the caller to compare byte for byte.
//
// # Architecture Overview
//
//	roundtrip/           Root package with the boundary ABI constants
//	├── schema/          Value shapes: primitives, arrays, sequences, options, structs, enums
//	├── codec/           Shape-driven encoder and decoder for Go values
//	├── registry/        The fixed test cases and their reference values
//	├── runner/          Decode, compare, re-encode; structured Report and Verdict
//	├── gateway/         Pointer/length ownership transfer, paired release, abort
//	├── driver/          Host-side checks of a foreign implementation compiled to wasm
//	├── metrics/         Prometheus counters for runner outcomes
//	├── errors/          Structured error types for debugging
//	└── cmd/
//	    ├── roundtrip/        CLI: list cases, encode, check, drive a wasm guest
//	    ├── libroundtrip/     C shared library exporting the boundary
//	    └── roundtrip-wasm/   wasip1 guest exporting the boundary
//
// # Quick Start
//
// Check bytes produced elsewhere:
//
//	r := runner.New(nil)
//	rep := r.Check(3, input)
//	if rep.Fatal() {
//	    log.Fatal(rep.Err)
//	}
//	fmt.Printf("% x\n", rep.Output)
//
// Drive a foreign implementation compiled to WebAssembly:
//
//	d, err := driver.New(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close(ctx)
//
//	results, err := d.CheckAll(ctx)
//
// # Boundary Contract
//
// Every successful roundtrip_test_case call transfers one output buffer to
// the caller, who must pass it to roundtrip_release_buffer exactly once.
// Any failure terminates the process; nothing is written to the output
// slots first.
//
// # Thread Safety
//
// The registry, compiled types, Runner and Gateway are safe for concurrent
// use. A Driver is NOT: it serializes calls into its single guest instance.
package roundtrip
