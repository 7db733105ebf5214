package codec

import (
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/internal/wire"
	"github.com/wippyai/borsh-roundtrip/schema"
)

// maxLength is the largest count a u32 length prefix can carry.
const maxLength = math.MaxUint32

// DefaultMaxEncodeDepth bounds nesting when encoding. Values built in Go
// are trusted, so the limit only guards against cyclic pointers.
const DefaultMaxEncodeDepth = 1 << 16

type Encoder struct {
	compiler *Compiler
	maxDepth int
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithEncoderMaxDepth sets the nesting limit; values below 1 keep the default.
func WithEncoderMaxDepth(n int) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	return NewEncoderWithCompiler(NewCompiler(), opts...)
}

func NewEncoderWithCompiler(c *Compiler, opts ...EncoderOption) *Encoder {
	e := &Encoder{compiler: c, maxDepth: DefaultMaxEncodeDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compiler returns the compiler backing this encoder.
func (e *Encoder) Compiler() *Compiler {
	return e.compiler
}

// Encode serializes value, which must have ct.GoType, into a fresh slice.
func (e *Encoder) Encode(ct *CompiledType, value reflect.Value) ([]byte, error) {
	if !value.IsValid() {
		return nil, errors.NilPointer(errors.PhaseEncode, nil, ct.GoType.String())
	}
	if value.Type() != ct.GoType {
		return nil, errors.TypeMismatch(errors.PhaseEncode, nil, value.Type().String(), ct.GoType.String())
	}

	w := getWriter()
	defer putWriter(w)

	if err := e.encode(w, ct, value, nil, 0); err != nil {
		return nil, err
	}

	// Return a copy since the writer goes back to the pool
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out, nil
}

func (e *Encoder) encode(w *wire.Writer, ct *CompiledType, v reflect.Value, path *pathElem, depth int) error {
	if depth > e.maxDepth {
		return errors.Overflow(errors.PhaseEncode, path.slice(), depth, "maximum nesting depth")
	}

	switch ct.Kind {
	case schema.KindBool:
		if v.Bool() {
			w.Byte(1)
		} else {
			w.Byte(0)
		}
	case schema.KindU8:
		w.Byte(uint8(v.Uint()))
	case schema.KindU16:
		w.WriteU16LE(uint16(v.Uint()))
	case schema.KindU32:
		w.WriteU32LE(uint32(v.Uint()))
	case schema.KindU64:
		w.WriteU64LE(v.Uint())
	case schema.KindI8:
		w.Byte(uint8(v.Int()))
	case schema.KindI16:
		w.WriteU16LE(uint16(v.Int()))
	case schema.KindI32:
		w.WriteU32LE(uint32(v.Int()))
	case schema.KindI64:
		w.WriteU64LE(uint64(v.Int()))
	case schema.KindU128:
		w.WriteU64LE(v.Field(0).Uint())
		w.WriteU64LE(v.Field(1).Uint())
	case schema.KindI128:
		w.WriteU64LE(v.Field(0).Uint())
		w.WriteU64LE(uint64(v.Field(1).Int()))
	case schema.KindF32:
		f := float32(v.Float())
		bits := math.Float32bits(f)
		if math.IsNaN(float64(f)) {
			return errors.InvalidFloat(errors.PhaseEncode, path.slice(), uint64(bits))
		}
		w.WriteU32LE(bits)
	case schema.KindF64:
		f := v.Float()
		bits := math.Float64bits(f)
		if math.IsNaN(f) {
			return errors.InvalidFloat(errors.PhaseEncode, path.slice(), bits)
		}
		w.WriteU64LE(bits)
	case schema.KindUnit:
	case schema.KindString:
		s := v.String()
		if !utf8.ValidString(s) {
			return errors.InvalidUTF8(errors.PhaseEncode, path.slice(), []byte(s))
		}
		if uint64(len(s)) > maxLength {
			return errors.Overflow(errors.PhaseEncode, path.slice(), len(s), "u32 length prefix")
		}
		w.WriteU32LE(uint32(len(s)))
		w.WriteString(s)
	case schema.KindArray:
		if ct.IsBytes() && v.CanAddr() {
			w.WriteBytes(v.Bytes())
			return nil
		}
		return e.encodeElems(w, ct.Elem, v, path, depth)
	case schema.KindSequence:
		n := v.Len()
		if uint64(n) > maxLength {
			return errors.Overflow(errors.PhaseEncode, path.slice(), n, "u32 length prefix")
		}
		w.WriteU32LE(uint32(n))
		if ct.IsBytes() {
			w.WriteBytes(v.Bytes())
			return nil
		}
		return e.encodeElems(w, ct.Elem, v, path, depth)
	case schema.KindOption:
		if v.IsNil() {
			w.Byte(0)
			return nil
		}
		w.Byte(1)
		return e.encode(w, ct.Elem, v.Elem(), path, depth+1)
	case schema.KindStruct:
		return e.encodeFields(w, ct.Fields, v, path.child(ct.Shape.Name), depth)
	case schema.KindEnum:
		return e.encodeEnum(w, ct, v, path.child(ct.Shape.Name), depth)
	default:
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(path.slice()...).
			Detail("unsupported shape kind: %s", ct.Kind).
			Build()
	}
	return nil
}

func (e *Encoder) encodeElems(w *wire.Writer, elem *CompiledType, v reflect.Value, path *pathElem, depth int) error {
	for i := 0; i < v.Len(); i++ {
		if err := e.encode(w, elem, v.Index(i), path.at(i), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeFields(w *wire.Writer, fields []CompiledField, v reflect.Value, path *pathElem, depth int) error {
	for i := range fields {
		f := &fields[i]
		if err := e.encode(w, f.Type, v.Field(f.GoIndex), path.child(f.Name), depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeEnum(w *wire.Writer, ct *CompiledType, v reflect.Value, path *pathElem, depth int) error {
	if ct.IntEnum {
		var ordinal uint64
		var valid bool
		if v.CanInt() {
			i := v.Int()
			valid = i >= 0 && i < int64(len(ct.Cases))
			ordinal = uint64(i)
		} else {
			ordinal = v.Uint()
			valid = ordinal < uint64(len(ct.Cases))
		}
		if !valid {
			return errors.New(errors.PhaseEncode, errors.KindInvalidDiscriminant).
				Path(path.slice()...).
				Value(ordinal).
				Detail("ordinal out of range (%d variants)", len(ct.Cases)).
				Build()
		}
		w.Byte(uint8(ordinal))
		return nil
	}

	active := -1
	for i := range ct.Cases {
		if v.Field(ct.Cases[i].GoIndex).IsNil() {
			continue
		}
		if active >= 0 {
			return errors.InvalidData(errors.PhaseEncode, path.slice(),
				"more than one variant set: "+ct.Cases[active].Name+", "+ct.Cases[i].Name)
		}
		active = i
	}
	if active < 0 {
		return errors.InvalidData(errors.PhaseEncode, path.slice(), "no variant set")
	}

	c := &ct.Cases[active]
	w.Byte(uint8(active))
	return e.encodeFields(w, c.Fields, v.Field(c.GoIndex).Elem(), path.child(c.Name), depth)
}
