package codec

import (
	"reflect"

	"github.com/wippyai/borsh-roundtrip/schema"
)

// CompiledType is a Shape bound to a concrete Go type. It is immutable once
// returned by Compiler.Compile and safe for concurrent use.
type CompiledType struct {
	GoType reflect.Type
	Shape  *schema.Shape
	Elem   *CompiledType
	Fields []CompiledField
	Cases  []CompiledCase
	// MinSize is the shortest valid encoding, used to reject implausible
	// sequence counts before allocating.
	MinSize int
	Len     int
	Kind    schema.Kind
	// IntEnum marks a unit-only enum bound to a Go integer holding the ordinal.
	IntEnum bool
}

// CompiledField binds one shape field to a Go struct field by index.
type CompiledField struct {
	Type    *CompiledType
	Name    string
	GoName  string
	GoIndex int
}

// CompiledCase binds one enum variant to a pointer field of the enum's Go
// struct. The active variant is the single non-nil pointer.
type CompiledCase struct {
	Payload reflect.Type
	Name    string
	Fields  []CompiledField
	GoIndex int
}

// IsPrimitive reports whether the bound shape has a fixed width and no children.
func (ct *CompiledType) IsPrimitive() bool {
	return ct.Kind.IsPrimitive()
}

// IsBytes reports whether ct is a sequence or array of u8 bound to a Go
// byte slice or array, which the codec copies in bulk.
func (ct *CompiledType) IsBytes() bool {
	return (ct.Kind == schema.KindSequence || ct.Kind == schema.KindArray) &&
		ct.Elem != nil && ct.Elem.Kind == schema.KindU8 && ct.GoType.Elem().Kind() == reflect.Uint8
}
