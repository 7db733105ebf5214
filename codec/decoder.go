package codec

import (
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/internal/wire"
	"github.com/wippyai/borsh-roundtrip/schema"
)

// Safety limits to prevent memory exhaustion from hostile input.
const (
	// DefaultMaxDepth bounds nesting when decoding. One level is one Option
	// payload or one Array or Sequence element; struct fields and enum
	// payloads stay at their parent's level.
	DefaultMaxDepth = 1024
	// MaxSequenceLength bounds sequences of zero-width elements, whose
	// count cannot be checked against the remaining input.
	MaxSequenceLength = 1 << 27
)

type Decoder struct {
	compiler *Compiler
	maxDepth int
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxDepth sets the nesting limit; values below 1 keep the default.
func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	return NewDecoderWithCompiler(NewCompiler(), opts...)
}

func NewDecoderWithCompiler(c *Compiler, opts ...DecoderOption) *Decoder {
	d := &Decoder{compiler: c, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compiler returns the compiler backing this decoder.
func (d *Decoder) Compiler() *Compiler {
	return d.compiler
}

// Decode reads one value from the start of data into out, which must be a
// non-nil pointer to ct.GoType. It returns the number of bytes consumed;
// leftover input is not an error here.
func (d *Decoder) Decode(ct *CompiledType, data []byte, out any) (int, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, errors.NilPointer(errors.PhaseDecode, nil, ct.GoType.String())
	}
	if rv.Type().Elem() != ct.GoType {
		return 0, errors.TypeMismatch(errors.PhaseDecode, nil, rv.Type().Elem().String(), ct.GoType.String())
	}

	r := wire.NewReader(data)
	if err := d.decode(r, ct, rv.Elem(), nil, 0); err != nil {
		return r.Position(), err
	}
	return r.Position(), nil
}

func (d *Decoder) decode(r *wire.Reader, ct *CompiledType, v reflect.Value, path *pathElem, depth int) error {
	if depth > d.maxDepth {
		return errors.Overflow(errors.PhaseDecode, path.slice(), depth, "maximum nesting depth")
	}

	switch ct.Kind {
	case schema.KindBool:
		offset := r.Position()
		b, err := r.ReadByte()
		if err != nil {
			return eof(r, path, 1)
		}
		if b > 1 {
			return errors.InvalidDiscriminant(path.slice(), offset, b, 1)
		}
		v.SetBool(b == 1)
	case schema.KindU8:
		b, err := r.ReadByte()
		if err != nil {
			return eof(r, path, 1)
		}
		v.SetUint(uint64(b))
	case schema.KindU16:
		x, err := r.ReadU16LE()
		if err != nil {
			return eof(r, path, 2)
		}
		v.SetUint(uint64(x))
	case schema.KindU32:
		x, err := r.ReadU32LE()
		if err != nil {
			return eof(r, path, 4)
		}
		v.SetUint(uint64(x))
	case schema.KindU64:
		x, err := r.ReadU64LE()
		if err != nil {
			return eof(r, path, 8)
		}
		v.SetUint(x)
	case schema.KindI8:
		b, err := r.ReadByte()
		if err != nil {
			return eof(r, path, 1)
		}
		v.SetInt(int64(int8(b)))
	case schema.KindI16:
		x, err := r.ReadU16LE()
		if err != nil {
			return eof(r, path, 2)
		}
		v.SetInt(int64(int16(x)))
	case schema.KindI32:
		x, err := r.ReadU32LE()
		if err != nil {
			return eof(r, path, 4)
		}
		v.SetInt(int64(int32(x)))
	case schema.KindI64:
		x, err := r.ReadU64LE()
		if err != nil {
			return eof(r, path, 8)
		}
		v.SetInt(int64(x))
	case schema.KindU128, schema.KindI128:
		b, err := r.Bytes(16)
		if err != nil {
			return eof(r, path, 16)
		}
		lo := wire.NewReader(b[:8])
		hi := wire.NewReader(b[8:])
		l, _ := lo.ReadU64LE()
		h, _ := hi.ReadU64LE()
		v.Field(0).SetUint(l)
		if ct.Kind == schema.KindU128 {
			v.Field(1).SetUint(h)
		} else {
			v.Field(1).SetInt(int64(h))
		}
	case schema.KindF32:
		x, err := r.ReadU32LE()
		if err != nil {
			return eof(r, path, 4)
		}
		f := math.Float32frombits(x)
		if math.IsNaN(float64(f)) {
			return errors.InvalidFloat(errors.PhaseDecode, path.slice(), uint64(x))
		}
		v.SetFloat(float64(f))
	case schema.KindF64:
		x, err := r.ReadU64LE()
		if err != nil {
			return eof(r, path, 8)
		}
		f := math.Float64frombits(x)
		if math.IsNaN(f) {
			return errors.InvalidFloat(errors.PhaseDecode, path.slice(), x)
		}
		v.SetFloat(f)
	case schema.KindUnit:
	case schema.KindString:
		n, err := r.ReadU32LE()
		if err != nil {
			return eof(r, path, 4)
		}
		if int64(n) > int64(r.Remaining()) {
			return eof(r, path, int(n))
		}
		b, _ := r.Bytes(int(n))
		if !utf8.Valid(b) {
			return errors.InvalidUTF8(errors.PhaseDecode, path.slice(), b)
		}
		v.SetString(string(b))
	case schema.KindArray:
		if ct.IsBytes() {
			b, err := r.Bytes(ct.Len)
			if err != nil {
				return eof(r, path, ct.Len)
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return nil
		}
		for i := 0; i < ct.Len; i++ {
			if err := d.decode(r, ct.Elem, v.Index(i), path.at(i), depth+1); err != nil {
				return err
			}
		}
	case schema.KindSequence:
		return d.decodeSequence(r, ct, v, path, depth)
	case schema.KindOption:
		offset := r.Position()
		tag, err := r.ReadByte()
		if err != nil {
			return eof(r, path, 1)
		}
		switch tag {
		case 0:
			v.SetZero()
		case 1:
			elem := reflect.New(ct.Elem.GoType)
			if err := d.decode(r, ct.Elem, elem.Elem(), path, depth+1); err != nil {
				return err
			}
			v.Set(elem)
		default:
			return errors.InvalidDiscriminant(path.slice(), offset, tag, 1)
		}
	case schema.KindStruct:
		return d.decodeFields(r, ct.Fields, v, path.child(ct.Shape.Name), depth)
	case schema.KindEnum:
		return d.decodeEnum(r, ct, v, path.child(ct.Shape.Name), depth)
	default:
		return errors.New(errors.PhaseDecode, errors.KindUnsupported).
			Path(path.slice()...).
			Detail("unsupported shape kind: %s", ct.Kind).
			Build()
	}
	return nil
}

func (d *Decoder) decodeSequence(r *wire.Reader, ct *CompiledType, v reflect.Value, path *pathElem, depth int) error {
	count, err := r.ReadU32LE()
	if err != nil {
		return eof(r, path, 4)
	}
	n := int(count)

	// Reject counts the remaining input cannot possibly hold before allocating.
	if minElem := ct.Elem.MinSize; minElem > 0 {
		if uint64(n)*uint64(minElem) > uint64(r.Remaining()) {
			return eof(r, path, n*minElem)
		}
	} else if n > MaxSequenceLength {
		return errors.Overflow(errors.PhaseDecode, path.slice(), n, "maximum length of zero-width sequence")
	}

	if ct.IsBytes() {
		b, _ := r.Bytes(n)
		s := reflect.MakeSlice(ct.GoType, n, n)
		reflect.Copy(s, reflect.ValueOf(b))
		v.Set(s)
		return nil
	}

	s := reflect.MakeSlice(ct.GoType, n, n)
	for i := 0; i < n; i++ {
		if err := d.decode(r, ct.Elem, s.Index(i), path.at(i), depth+1); err != nil {
			return err
		}
	}
	v.Set(s)
	return nil
}

func (d *Decoder) decodeFields(r *wire.Reader, fields []CompiledField, v reflect.Value, path *pathElem, depth int) error {
	for i := range fields {
		f := &fields[i]
		if err := d.decode(r, f.Type, v.Field(f.GoIndex), path.child(f.Name), depth); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeEnum(r *wire.Reader, ct *CompiledType, v reflect.Value, path *pathElem, depth int) error {
	offset := r.Position()
	ordinal, err := r.ReadByte()
	if err != nil {
		return eof(r, path, 1)
	}
	if int(ordinal) >= len(ct.Cases) {
		return errors.InvalidDiscriminant(path.slice(), offset, ordinal, uint8(len(ct.Cases)-1))
	}

	if ct.IntEnum {
		if v.CanInt() {
			v.SetInt(int64(ordinal))
		} else {
			v.SetUint(uint64(ordinal))
		}
		return nil
	}

	c := &ct.Cases[ordinal]
	payload := reflect.New(c.Payload)
	if err := d.decodeFields(r, c.Fields, payload.Elem(), path.child(c.Name), depth); err != nil {
		return err
	}
	v.SetZero()
	v.Field(c.GoIndex).Set(payload)
	return nil
}

func eof(r *wire.Reader, path *pathElem, need int) error {
	return errors.UnexpectedEOF(path.slice(), r.Position(), need, r.Remaining())
}
