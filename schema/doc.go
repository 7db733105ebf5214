// Package schema defines the value shapes of the canonical binary format.
//
// A Shape is a closed description of how one type is laid out on the wire:
//
//	Kind        Encoding
//	────────────────────────────────────────────────────────────
//	bool        1 byte, 0 or 1
//	u8..u128    fixed-width little-endian unsigned
//	i8..i128    fixed-width little-endian two's complement
//	f32, f64    IEEE-754 little-endian
//	()          zero bytes
//	string      u32 byte count + UTF-8 bytes
//	array       N elements, no prefix
//	sequence    u32 count + elements
//	option      0x00, or 0x01 + element
//	struct      fields in declaration order, no tags, no padding
//	enum        u8 ordinal + variant payload fields in order
//
// Recursive ties a self-referential shape such as a tree node whose child
// is Option<Box<Self>>. Shapes are immutable once built and safe to share
// between goroutines.
package schema
