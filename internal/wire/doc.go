// Package wire provides the byte-level reader and writer used by the codec.
//
// Fixed-width scalars are always little-endian regardless of host byte
// order.
//
// This package is internal to the module.
package wire
