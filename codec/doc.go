// Package codec encodes and decodes Go values in the canonical binary format
// described by package schema.
//
// # Key Types
//
//	Compiler      - Binds a Shape to a Go type once and caches the result
//	CompiledType  - Shape plus Go field indexes, safe for concurrent use
//	Encoder       - Go value to bytes
//	Decoder       - Bytes to Go value
//	Uint128/Int128 - 128-bit integers as two 64-bit halves
//
// # Encoding Flow
//
//  1. Compiler.Compile(shape, goType) → CompiledType
//  2. Encoder.Encode(compiled, value) → []byte
//
// # Decoding Flow
//
//  1. Compiler.Compile(shape, goType) → CompiledType
//  2. Decoder.Decode(compiled, data, &out) → consumed
//
// Marshal and Unmarshal wrap both flows around a shared Compiler. Unmarshal
// rejects input with bytes left over after the value; DecodePrefix does not.
//
// # Go Bindings
//
//	Shape           Go type
//	────────────────────────────────────────────────
//	bool            bool
//	u8..u64         uint8..uint64
//	i8..i64         int8..int64
//	u128, i128      Uint128, Int128
//	f32, f64        float32, float64
//	()              struct{}
//	string          string
//	[T; N]          [N]T
//	Vec<T>          []T
//	Option<T>       *T
//	struct          struct, fields by tag, name, or position
//	enum            integer ordinal (payload-less only), or a struct
//	                with one pointer field per variant
//
// Struct fields match a `borsh:"name"` tag first, then the field name
// case-insensitively, then the name with underscores removed. A tag of "-"
// hides the field.
//
// # Error Handling
//
// All failures are *errors.Error values. Decoding distinguishes
// unexpected_eof, invalid_discriminant, invalid_utf8, invalid_float and
// trailing_bytes, so callers can tell truncation from corruption.
//
// # Thread Safety
//
// Compiler, Encoder and Decoder are safe for concurrent use.
package codec
