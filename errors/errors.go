package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSchema   Phase = "schema"   // shape construction
	PhaseCompile  Phase = "compile"  // shape to Go type binding
	PhaseEncode   Phase = "encode"   // Go to bytes
	PhaseDecode   Phase = "decode"   // bytes to Go
	PhaseRegistry Phase = "registry" // test case lookup
	PhaseRun      Phase = "run"      // conformance check
	PhaseBoundary Phase = "boundary" // pointer/length marshaling
	PhaseGuest    Phase = "guest"    // foreign wasm implementation
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch        Kind = "type_mismatch"
	KindUnsupported         Kind = "unsupported"
	KindInvalidData         Kind = "invalid_data"
	KindInvalidInput        Kind = "invalid_input"
	KindFieldMissing        Kind = "field_missing"
	KindNilPointer          Kind = "nil_pointer"
	KindOverflow            Kind = "overflow"
	KindAllocation          Kind = "allocation"
	KindNotFound            Kind = "not_found"
	KindUnexpectedEOF       Kind = "unexpected_eof"
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindInvalidUTF8         Kind = "invalid_utf8"
	KindInvalidFloat        Kind = "invalid_float"
	KindTrailingBytes       Kind = "trailing_bytes"
	KindUnknownTestCase     Kind = "unknown_test_case"
	KindRoundtripMismatch   Kind = "roundtrip_mismatch"
	KindAborted             Kind = "aborted"
)

// Sentinels for use with the standard library errors.Is. Matching is by
// Phase and Kind only.
var (
	ErrUnexpectedEOF       = &Error{Phase: PhaseDecode, Kind: KindUnexpectedEOF}
	ErrInvalidDiscriminant = &Error{Phase: PhaseDecode, Kind: KindInvalidDiscriminant}
	ErrInvalidUTF8         = &Error{Phase: PhaseDecode, Kind: KindInvalidUTF8}
	ErrInvalidFloat        = &Error{Phase: PhaseDecode, Kind: KindInvalidFloat}
	ErrTrailingBytes       = &Error{Phase: PhaseDecode, Kind: KindTrailingBytes}
	ErrUnknownTestCase     = &Error{Phase: PhaseRegistry, Kind: KindUnknownTestCase}
	ErrRoundtripMismatch   = &Error{Phase: PhaseRun, Kind: KindRoundtripMismatch}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Shape  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Shape != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Shape != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", shape ")
			b.WriteString(e.Shape)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("shape ")
			b.WriteString(e.Shape)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Shape != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Shape sets the shape description
func (b *Builder) Shape(s string) *Builder {
	b.err.Shape = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, shape string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Shape:  shape,
	}
}

// UnexpectedEOF reports that decoding needed more bytes than remained.
func UnexpectedEOF(path []string, offset, need, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnexpectedEOF,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes at offset %d, %d remaining", need, offset, have),
	}
}

// InvalidDiscriminant creates an invalid discriminant error for options, bools and enums
func InvalidDiscriminant(path []string, offset int, disc uint8, maxValid uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d at offset %d out of range (max %d)", disc, offset, maxValid),
		Value:  disc,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidFloat reports a NaN, which the format does not admit.
func InvalidFloat(phase Phase, path []string, bits uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidFloat,
		Path:   path,
		Detail: fmt.Sprintf("NaN is not allowed (bits %#x)", bits),
		Value:  bits,
	}
}

// TrailingBytes reports input left over after a complete value.
func TrailingBytes(consumed, length int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTrailingBytes,
		Detail: fmt.Sprintf("%d trailing bytes after value (consumed %d of %d)", length-consumed, consumed, length),
		Value:  length - consumed,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v exceeds %s", value, limit),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// UnknownTestCase reports an identifier the registry does not hold.
func UnknownTestCase(id uint8, count int) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindUnknownTestCase,
		Detail: fmt.Sprintf("unknown id: %d (registry holds %d cases)", id, count),
		Value:  id,
	}
}

// RoundtripMismatch reports a decoded value that differs from the reference.
func RoundtripMismatch(name string, diff string) *Error {
	return &Error{
		Phase:  PhaseRun,
		Kind:   KindRoundtripMismatch,
		Path:   []string{name},
		Detail: "decoded value differs from reference (-want +got):\n" + diff,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size int, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
