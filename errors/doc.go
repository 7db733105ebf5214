// Package errors provides structured error types for the roundtrip harness.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go type and shape names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
//		Path("Profile", "age").
//		GoType("string").
//		Shape("u128").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnexpectedEOF(path, offset, 4, 1)
//	err := errors.InvalidDiscriminant(path, offset, 7, 2)
//
// Decode failures each carry a distinct Kind so that malformed input can be
// told apart from a value mismatch. The exported sentinels (ErrUnexpectedEOF,
// ErrTrailingBytes, ...) match any error of the same Phase and Kind via the
// standard library errors.Is.
package errors
