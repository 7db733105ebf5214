package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/borsh-roundtrip/errors"
)

// MaxVariants is the number of ordinals a one-byte discriminant can carry.
const MaxVariants = 256

// Shape describes how one type is laid out on the wire. Shapes built with
// Recursive form cyclic graphs; everything else is a tree.
type Shape struct {
	Elem     *Shape
	Name     string
	Fields   []Field
	Variants []Variant
	Len      int
	Kind     Kind
}

// Field is a named member of a struct or of an enum variant payload.
type Field struct {
	Shape *Shape
	Name  string
}

// Variant is one alternative of an enum. Its ordinal is its index.
type Variant struct {
	Name   string
	Fields []Field
}

func primitive(k Kind) *Shape { return &Shape{Kind: k} }

func Bool() *Shape   { return primitive(KindBool) }
func U8() *Shape     { return primitive(KindU8) }
func U16() *Shape    { return primitive(KindU16) }
func U32() *Shape    { return primitive(KindU32) }
func U64() *Shape    { return primitive(KindU64) }
func U128() *Shape   { return primitive(KindU128) }
func I8() *Shape     { return primitive(KindI8) }
func I16() *Shape    { return primitive(KindI16) }
func I32() *Shape    { return primitive(KindI32) }
func I64() *Shape    { return primitive(KindI64) }
func I128() *Shape   { return primitive(KindI128) }
func F32() *Shape    { return primitive(KindF32) }
func F64() *Shape    { return primitive(KindF64) }
func Unit() *Shape   { return primitive(KindUnit) }
func String() *Shape { return primitive(KindString) }

// Array is exactly n elements with no length prefix.
func Array(elem *Shape, n int) *Shape {
	return &Shape{Kind: KindArray, Elem: elem, Len: n}
}

// Sequence is a u32 count followed by that many elements.
func Sequence(elem *Shape) *Shape {
	return &Shape{Kind: KindSequence, Elem: elem}
}

// Option is a 0/1 presence byte followed by elem when present.
func Option(elem *Shape) *Shape {
	return &Shape{Kind: KindOption, Elem: elem}
}

// Struct is the concatenation of its fields in declaration order.
func Struct(name string, fields ...Field) *Shape {
	return &Shape{Kind: KindStruct, Name: name, Fields: fields}
}

// Enum is a one-byte ordinal followed by the chosen variant's payload.
func Enum(name string, variants ...Variant) *Shape {
	return &Shape{Kind: KindEnum, Name: name, Variants: variants}
}

func NewField(name string, s *Shape) Field {
	return Field{Name: name, Shape: s}
}

// NewVariant declares an enum alternative. Payload fields named "0", "1", ...
// form a tuple variant.
func NewVariant(name string, fields ...Field) Variant {
	return Variant{Name: name, Fields: fields}
}

// Tuple builds positional payload fields for a tuple variant.
func Tuple(shapes ...*Shape) []Field {
	fields := make([]Field, len(shapes))
	for i, s := range shapes {
		fields[i] = Field{Name: strconv.Itoa(i), Shape: s}
	}
	return fields
}

// Recursive ties a self-referential knot. build receives a placeholder for
// the shape being defined and must return it wrapped so every self
// reference sits behind an Option (the owned-pointer realisation) or a
// Sequence.
//
//	hole := schema.Recursive("Hole", func(self *schema.Shape) *schema.Shape {
//		return schema.Struct("Hole",
//			schema.NewField("age", schema.U32()),
//			schema.NewField("inner", schema.Option(self)))
//	})
func Recursive(name string, build func(self *Shape) *Shape) *Shape {
	self := &Shape{Kind: KindStruct, Name: name}
	built := build(self)
	if built != nil && built != self {
		*self = *built
	}
	if self.Name == "" {
		self.Name = name
	}
	return self
}

// IsTupleVariant reports whether every payload field is positional.
func (v Variant) IsTupleVariant() bool {
	for i, f := range v.Fields {
		if f.Name != strconv.Itoa(i) {
			return false
		}
	}
	return len(v.Fields) > 0
}

// IsUnitOnly reports whether no variant of an enum carries a payload.
func (s *Shape) IsUnitOnly() bool {
	if s.Kind != KindEnum {
		return false
	}
	for _, v := range s.Variants {
		if len(v.Fields) > 0 {
			return false
		}
	}
	return true
}

// String renders the shape as a type expression. Named structs and enums
// render as their name, so cyclic shapes terminate.
func (s *Shape) String() string {
	var b strings.Builder
	s.writeExpr(&b)
	return b.String()
}

func (s *Shape) writeExpr(b *strings.Builder) {
	if s == nil {
		b.WriteString("<nil>")
		return
	}
	switch s.Kind {
	case KindArray:
		b.WriteByte('[')
		s.Elem.writeExpr(b)
		b.WriteString("; ")
		b.WriteString(strconv.Itoa(s.Len))
		b.WriteByte(']')
	case KindSequence:
		b.WriteString("Vec<")
		s.Elem.writeExpr(b)
		b.WriteByte('>')
	case KindOption:
		b.WriteString("Option<")
		s.Elem.writeExpr(b)
		b.WriteByte('>')
	case KindString:
		b.WriteString("String")
	case KindStruct:
		if s.Name != "" {
			b.WriteString(s.Name)
			return
		}
		b.WriteString("struct { ")
		writeFields(b, s.Fields)
		b.WriteString(" }")
	case KindEnum:
		if s.Name != "" {
			b.WriteString(s.Name)
			return
		}
		b.WriteString("enum { ")
		for i, v := range s.Variants {
			if i > 0 {
				b.WriteString(", ")
			}
			writeVariant(b, v)
		}
		b.WriteString(" }")
	default:
		b.WriteString(s.Kind.String())
	}
}

func writeFields(b *strings.Builder, fields []Field) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		f.Shape.writeExpr(b)
	}
}

func writeVariant(b *strings.Builder, v Variant) {
	b.WriteString(v.Name)
	switch {
	case len(v.Fields) == 0:
	case v.IsTupleVariant():
		b.WriteByte('(')
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			f.Shape.writeExpr(b)
		}
		b.WriteByte(')')
	default:
		b.WriteString(" { ")
		writeFields(b, v.Fields)
		b.WriteString(" }")
	}
}

// Definition renders the declarations of every named struct and enum
// reachable from s, s first.
func (s *Shape) Definition() string {
	var b strings.Builder
	seen := map[*Shape]bool{}
	var queue []*Shape
	enqueue := func(n *Shape) {
		if n != nil && !seen[n] {
			seen[n] = true
			queue = append(queue, n)
		}
	}
	enqueue(s)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		switch n.Kind {
		case KindArray, KindSequence, KindOption:
			enqueue(n.Elem)
		case KindStruct:
			if n.Name != "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString("struct ")
				b.WriteString(n.Name)
				b.WriteString(" {\n")
				for _, f := range n.Fields {
					b.WriteString("    ")
					b.WriteString(f.Name)
					b.WriteString(": ")
					f.Shape.writeExpr(&b)
					b.WriteString(",\n")
				}
				b.WriteString("}\n")
			}
			for _, f := range n.Fields {
				enqueue(f.Shape)
			}
		case KindEnum:
			if n.Name != "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString("enum ")
				b.WriteString(n.Name)
				b.WriteString(" {\n")
				for _, v := range n.Variants {
					b.WriteString("    ")
					writeVariant(&b, v)
					b.WriteString(",\n")
				}
				b.WriteString("}\n")
			}
			for _, v := range n.Variants {
				for _, f := range v.Fields {
					enqueue(f.Shape)
				}
			}
		}
	}
	if b.Len() == 0 {
		return s.String()
	}
	return b.String()
}

// MinSize returns the length of the shortest valid encoding of s.
func (s *Shape) MinSize() int {
	return minSize(s, map[*Shape]int{})
}

func minSize(s *Shape, memo map[*Shape]int) int {
	if s == nil {
		return 0
	}
	if n, ok := memo[s]; ok {
		return n
	}
	// A cycle can only close through Option or Sequence, whose minimum
	// does not depend on the element.
	memo[s] = 0
	var n int
	switch s.Kind {
	case KindString, KindSequence:
		n = 4
	case KindOption:
		n = 1
	case KindArray:
		n = s.Len * minSize(s.Elem, memo)
	case KindStruct:
		for _, f := range s.Fields {
			n += minSize(f.Shape, memo)
		}
	case KindEnum:
		best := -1
		for _, v := range s.Variants {
			size := 0
			for _, f := range v.Fields {
				size += minSize(f.Shape, memo)
			}
			if best < 0 || size < best {
				best = size
			}
		}
		if best < 0 {
			best = 0
		}
		n = 1 + best
	default:
		n = s.Kind.Size()
	}
	memo[s] = n
	return n
}

// Validate rejects shapes that cannot be encoded: nil children, negative
// array lengths, empty or oversized enums, duplicate names, and cycles that
// do not pass through an Option or Sequence.
func (s *Shape) Validate() error {
	v := &validator{state: map[*Shape]uint8{}}
	return v.visit(s, nil)
}

const (
	stateNew uint8 = iota
	stateActive
	stateDone
)

type validator struct {
	state map[*Shape]uint8
}

func (v *validator) visit(s *Shape, path []string) error {
	if s == nil {
		return errors.New(errors.PhaseSchema, errors.KindNilPointer).
			Path(path...).
			Detail("nil shape").
			Build()
	}
	switch v.state[s] {
	case stateActive:
		return errors.New(errors.PhaseSchema, errors.KindInvalidData).
			Path(path...).
			Shape(s.String()).
			Detail("recursive shape must be behind Option or Sequence").
			Build()
	case stateDone:
		return nil
	}
	v.state[s] = stateActive

	var indirect []*Shape
	switch s.Kind {
	case KindArray:
		if s.Len < 0 {
			return errors.New(errors.PhaseSchema, errors.KindInvalidData).
				Path(path...).
				Detail("negative array length %d", s.Len).
				Build()
		}
		if err := v.visit(s.Elem, appendPath(path, "[elem]")); err != nil {
			return err
		}
	case KindSequence, KindOption:
		if s.Elem == nil {
			return errors.New(errors.PhaseSchema, errors.KindNilPointer).
				Path(path...).
				Detail("%s without element shape", s.Kind).
				Build()
		}
		indirect = append(indirect, s.Elem)
	case KindStruct:
		fieldPath := path
		if s.Name != "" {
			fieldPath = appendPath(path, s.Name)
		}
		if err := v.visitFields(s.Fields, fieldPath); err != nil {
			return err
		}
	case KindEnum:
		if len(s.Variants) == 0 || len(s.Variants) > MaxVariants {
			return errors.New(errors.PhaseSchema, errors.KindInvalidData).
				Path(path...).
				Detail("enum %s has %d variants, want 1..%d", s.Name, len(s.Variants), MaxVariants).
				Build()
		}
		names := make(map[string]bool, len(s.Variants))
		for _, variant := range s.Variants {
			if names[variant.Name] {
				return errors.New(errors.PhaseSchema, errors.KindInvalidData).
					Path(path...).
					Detail("duplicate variant %q in enum %s", variant.Name, s.Name).
					Build()
			}
			names[variant.Name] = true
			if err := v.visitFields(variant.Fields, appendPath(path, s.Name+"::"+variant.Name)); err != nil {
				return err
			}
		}
	default:
		if s.Kind > KindEnum {
			return errors.Unsupported(errors.PhaseSchema, "shape kind "+s.Kind.String())
		}
	}

	v.state[s] = stateDone
	for _, elem := range indirect {
		if v.state[elem] == stateNew {
			if err := v.visit(elem, appendPath(path, "["+s.Kind.String()+"]")); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) visitFields(fields []Field, path []string) error {
	names := make(map[string]bool, len(fields))
	for _, f := range fields {
		if names[f.Name] {
			return errors.New(errors.PhaseSchema, errors.KindInvalidData).
				Path(path...).
				Detail("duplicate field %q", f.Name).
				Build()
		}
		names[f.Name] = true
		if err := v.visit(f.Shape, appendPath(path, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func appendPath(path []string, elem string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), elem)
}
